package orcid

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/zeebo/blake3"
)

// Fingerprint digests the record's JSON document. encoding/json writes map
// keys in sorted order, so equal documents always produce equal fingerprints.
func Fingerprint(record *Record) (string, error) {
	if record == nil {
		return "", fmt.Errorf("fingerprint: nil record")
	}
	data, err := json.Marshal(record.Data)
	if err != nil {
		return "", fmt.Errorf("fingerprint record %s: %w", record.Recid, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
