package orcid

import (
	"context"
	"fmt"
)

const cacheNamespace = "orcidcache"

// CacheStore persists putcode cache entries. Get returns (nil, nil) on a miss.
// Put overwrites the entry with the same key and must be safe for concurrent
// use on distinct keys.
type CacheStore interface {
	Get(ctx context.Context, key string) (*PutcodeCacheEntry, error)
	Put(ctx context.Context, entry *PutcodeCacheEntry) error
}

// Cache remembers, per identity and record, the putcode of the pushed work and
// the fingerprint of the content last pushed.
type Cache struct {
	store CacheStore
}

func NewCache(store CacheStore) *Cache {
	return &Cache{store: store}
}

func CacheKey(orcid, recid string) string {
	return cacheNamespace + ":" + orcid + ":" + recid
}

func (c *Cache) ReadPutcode(ctx context.Context, orcid, recid string) (int64, bool, error) {
	entry, err := c.store.Get(ctx, CacheKey(orcid, recid))
	if err != nil {
		return 0, false, fmt.Errorf("read putcode cache: %w", err)
	}
	if entry == nil || entry.Putcode == nil {
		return 0, false, nil
	}
	return *entry.Putcode, true, nil
}

// HasContentChanged reports whether record differs from what was last pushed.
// Entries written without content (reconciliation backfill) always compare as
// changed.
func (c *Cache) HasContentChanged(ctx context.Context, orcid, recid string, record *Record) (bool, error) {
	entry, err := c.store.Get(ctx, CacheKey(orcid, recid))
	if err != nil {
		return false, fmt.Errorf("read putcode cache: %w", err)
	}
	if entry == nil || entry.Fingerprint == nil {
		return true, nil
	}

	current, err := Fingerprint(record)
	if err != nil {
		return false, err
	}
	return *entry.Fingerprint != current, nil
}

// WritePutcode stores putcode for (orcid, recid). With a nil record the
// fingerprint is cleared.
func (c *Cache) WritePutcode(ctx context.Context, orcid, recid string, putcode int64, record *Record) error {
	entry := &PutcodeCacheEntry{
		CacheKey: CacheKey(orcid, recid),
		Orcid:    orcid,
		Recid:    recid,
		Putcode:  &putcode,
	}
	if record != nil {
		fingerprint, err := Fingerprint(record)
		if err != nil {
			return err
		}
		entry.Fingerprint = &fingerprint
	}

	if err := c.store.Put(ctx, entry); err != nil {
		return fmt.Errorf("write putcode cache: %w", err)
	}
	return nil
}
