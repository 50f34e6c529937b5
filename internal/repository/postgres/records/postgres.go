package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	orciddomain "inspire-orcid/internal/domain/orcid"
	"inspire-orcid/internal/repository/postgres/pgerrors"
)

const table = "literature_records"

type literatureRecord struct {
	Recid     string    `gorm:"primaryKey"`
	Data      []byte    `gorm:"type:jsonb;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (literatureRecord) TableName() string {
	return table
}

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetRecord(ctx context.Context, recid string) (*orciddomain.Record, error) {
	var row literatureRecord
	err := r.db.WithContext(ctx).Where("recid = ?", recid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, orciddomain.ErrRecordNotFound
	}
	if err != nil {
		return nil, pgerrors.Wrap(table, err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(row.Data, &data); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", recid, err)
	}
	return &orciddomain.Record{Recid: row.Recid, Data: data}, nil
}

// SaveRecord inserts or replaces the record's document.
func (r *PostgresRepository) SaveRecord(ctx context.Context, record *orciddomain.Record) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", record.Recid, err)
	}

	row := literatureRecord{Recid: record.Recid, Data: data}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "recid"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	return pgerrors.Wrap(table, err)
}
