package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	orciddomain "inspire-orcid/internal/domain/orcid"
)

// PutcodeStore is a process-local orcid.CacheStore for development and tests.
type PutcodeStore struct {
	mu      sync.RWMutex
	entries map[string]orciddomain.PutcodeCacheEntry
}

func NewPutcodeStore() *PutcodeStore {
	return &PutcodeStore{
		entries: make(map[string]orciddomain.PutcodeCacheEntry),
	}
}

func (s *PutcodeStore) Get(ctx context.Context, key string) (*orciddomain.PutcodeCacheEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return cloneEntry(entry), nil
}

func (s *PutcodeStore) Put(ctx context.Context, entry *orciddomain.PutcodeCacheEntry) error {
	stored := *cloneEntry(*entry)
	stored.UpdatedAt = time.Now().UTC()

	s.mu.Lock()
	s.entries[entry.CacheKey] = stored
	s.mu.Unlock()
	return nil
}

func (s *PutcodeStore) ListByOrcid(ctx context.Context, orcid string) ([]orciddomain.PutcodeCacheEntry, error) {
	s.mu.RLock()
	result := make([]orciddomain.PutcodeCacheEntry, 0)
	for _, entry := range s.entries {
		if entry.Orcid == orcid {
			result = append(result, *cloneEntry(entry))
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return strings.Compare(result[i].Recid, result[j].Recid) < 0
	})
	return result, nil
}

func (s *PutcodeStore) DeleteByOrcid(ctx context.Context, orcid string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for key, entry := range s.entries {
		if entry.Orcid == orcid {
			delete(s.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

func cloneEntry(entry orciddomain.PutcodeCacheEntry) *orciddomain.PutcodeCacheEntry {
	clone := entry
	if entry.Putcode != nil {
		putcode := *entry.Putcode
		clone.Putcode = &putcode
	}
	if entry.Fingerprint != nil {
		fingerprint := *entry.Fingerprint
		clone.Fingerprint = &fingerprint
	}
	return &clone
}
