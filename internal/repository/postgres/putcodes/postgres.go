package putcodes

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	orciddomain "inspire-orcid/internal/domain/orcid"
	"inspire-orcid/internal/repository/postgres/pgerrors"
)

const table = "orcid_putcode_cache"

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, key string) (*orciddomain.PutcodeCacheEntry, error) {
	var entry orciddomain.PutcodeCacheEntry
	err := r.db.WithContext(ctx).Where("cache_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pgerrors.Wrap(table, err)
	}
	return &entry, nil
}

// Put upserts on cache_key; a single statement, so concurrent writers of
// different keys never block each other and writers of one key serialize.
func (r *PostgresRepository) Put(ctx context.Context, entry *orciddomain.PutcodeCacheEntry) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"orcid", "recid", "putcode", "fingerprint", "updated_at"}),
		}).
		Create(entry).Error
	return pgerrors.Wrap(table, err)
}

// ListByOrcid returns every cached entry of an identity, ordered by recid.
func (r *PostgresRepository) ListByOrcid(ctx context.Context, orcid string) ([]orciddomain.PutcodeCacheEntry, error) {
	var entries []orciddomain.PutcodeCacheEntry
	err := r.db.WithContext(ctx).
		Where("orcid = ?", orcid).
		Order("recid").
		Find(&entries).Error
	if err != nil {
		return nil, pgerrors.Wrap(table, err)
	}
	return entries, nil
}

// DeleteByOrcid drops every cached entry of an identity and reports how many
// were removed.
func (r *PostgresRepository) DeleteByOrcid(ctx context.Context, orcid string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("orcid = ?", orcid).
		Delete(&orciddomain.PutcodeCacheEntry{})
	if result.Error != nil {
		return 0, pgerrors.Wrap(table, result.Error)
	}
	return result.RowsAffected, nil
}
