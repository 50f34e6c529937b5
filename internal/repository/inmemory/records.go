package inmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	orciddomain "inspire-orcid/internal/domain/orcid"
)

// RecordStore keeps literature records in memory as encoded JSON, so saved
// and returned records never share maps with the caller.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string][]byte)}
}

func (s *RecordStore) GetRecord(ctx context.Context, recid string) (*orciddomain.Record, error) {
	s.mu.RLock()
	raw, ok := s.records[recid]
	s.mu.RUnlock()
	if !ok {
		return nil, orciddomain.ErrRecordNotFound
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", recid, err)
	}
	return &orciddomain.Record{Recid: recid, Data: data}, nil
}

func (s *RecordStore) SaveRecord(ctx context.Context, record *orciddomain.Record) error {
	raw, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.Recid, err)
	}

	s.mu.Lock()
	s.records[record.Recid] = raw
	s.mu.Unlock()
	return nil
}
