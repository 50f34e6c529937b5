package orcid

import "time"

// Record is a literature record as stored locally. Data is the record's JSON
// document; its fingerprint decides whether a re-push is needed.
type Record struct {
	Recid string
	Data  map[string]interface{}
}

type PutcodeCacheEntry struct {
	CacheKey    string `gorm:"primaryKey"`
	Orcid       string `gorm:"not null;index"`
	Recid       string `gorm:"not null"`
	Putcode     *int64
	Fingerprint *string
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (PutcodeCacheEntry) TableName() string {
	return "orcid_putcode_cache"
}

// WorkRef is a work registered under an identity: its putcode and the url
// the work points back to.
type WorkRef struct {
	Putcode int64
	URL     string
}

type PushRequest struct {
	Orcid string
	Recid string
	Token string
}
