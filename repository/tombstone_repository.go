package repository

import (
	"context"
	"fmt"

	"github.com/ixianhq/ixian-server/models"
	"gorm.io/gorm"
)

// TombstoneRepositoryImpl implements TombstoneRepository interface
type TombstoneRepositoryImpl struct {
	DB *gorm.DB
}

// NewTombstoneRepository creates a new tombstone repository
func NewTombstoneRepository(db *gorm.DB) TombstoneRepository {
	return &TombstoneRepositoryImpl{DB: db}
}

func (r *TombstoneRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// Record appends a tombstone row for a hard-deleted record. Must run in the
// same transaction as the physical delete so the two cannot diverge.
func (r *TombstoneRepositoryImpl) Record(ctx context.Context, entityKind, recordID string, deletedAtMillis int64) error {
	db := r.getDB(ctx)
	row := models.Tombstone{
		EntityKind: entityKind,
		RecordID:   recordID,
		DeletedAt:  deletedAtMillis,
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("failed to record tombstone for %s %s: %w", entityKind, recordID, err)
	}
	return nil
}

// ListSince returns identifiers hard-deleted after the cursor for one entity kind
func (r *TombstoneRepositoryImpl) ListSince(ctx context.Context, entityKind string, sinceMillis int64) ([]string, error) {
	db := r.getDB(ctx)
	var ids []string
	err := db.Model(&models.Tombstone{}).
		Where("entity_kind = ? AND deleted_at > ?", entityKind, sinceMillis).
		Pluck("record_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones since %d: %w", sinceMillis, err)
	}
	return ids, nil
}

// PruneBefore removes tombstones older than the retention cutoff
func (r *TombstoneRepositoryImpl) PruneBefore(ctx context.Context, cutoffMillis int64) error {
	db := r.getDB(ctx)
	if err := db.Where("deleted_at < ?", cutoffMillis).Delete(&models.Tombstone{}).Error; err != nil {
		return fmt.Errorf("failed to prune tombstones before %d: %w", cutoffMillis, err)
	}
	return nil
}
