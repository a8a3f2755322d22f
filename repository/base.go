// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BaseRepository provides common repository functionality with transaction
// support. It also carries the generic sync-store operations (point lookup,
// upsert, modified-since scan, tombstone scan) shared by both syncable
// entity kinds; entityKind selects the tombstone partition.
type BaseRepository[T any, F any] struct {
	DB         *gorm.DB
	entityKind string
}

// NewBaseRepository creates a new base repository instance
func NewBaseRepository[T any, F any](db *gorm.DB, entityKind string) *BaseRepository[T, F] {
	return &BaseRepository[T, F]{
		DB:         db,
		entityKind: entityKind,
	}
}

// getDB returns the appropriate database connection (with or without transaction)
func (r *BaseRepository[T, F]) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// getDBForWrite returns database connection with transaction for write operations
func (r *BaseRepository[T, F]) getDBForWrite(ctx context.Context) (*gorm.DB, bool, error) {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx, false, nil // Transaction already exists, don't commit
	}

	// Start new transaction for write operation
	tx := r.DB.Begin()
	if tx.Error != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	return tx, true, nil // New transaction, should commit
}

// ByRecordID retrieves a record by its client-assigned identifier
func (r *BaseRepository[T, F]) ByRecordID(ctx context.Context, id string) (*T, bool, error) {
	db := r.getDB(ctx)

	var entity T
	err := db.Where("id = ?", id).Take(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to find record %s: %w", id, err)
	}

	return &entity, true, nil
}

// ByRecordIDForUpdate retrieves a record by identifier with a row lock
// (SELECT ... FOR UPDATE). Callers must already be inside a transaction;
// this is what serializes concurrent reconciliations of the same record so
// the final updated_at is the maximum of all winning candidates.
func (r *BaseRepository[T, F]) ByRecordIDForUpdate(ctx context.Context, id string) (*T, bool, error) {
	db := r.getDB(ctx)

	var entity T
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).Take(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to lock record %s: %w", id, err)
	}

	return &entity, true, nil
}

// Upsert inserts the record if absent, otherwise overwrites all fields.
// The store never rejects based on business rules; that is the guard's job.
func (r *BaseRepository[T, F]) Upsert(ctx context.Context, entity *T) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(entity).Error
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	return nil
}

// ListModifiedSince returns every record, live or soft-deleted, with
// updated_at strictly greater than the cursor
func (r *BaseRepository[T, F]) ListModifiedSince(ctx context.Context, since int64) ([]*T, error) {
	db := r.getDB(ctx)

	var entities []*T
	var model T
	err := db.Model(&model).Where("updated_at > ?", since).Find(&entities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list records modified since %d: %w", since, err)
	}

	return entities, nil
}

// ListTombstonesSince returns identifiers of records of this entity kind
// that were hard-deleted after the cursor
func (r *BaseRepository[T, F]) ListTombstonesSince(ctx context.Context, since int64) ([]string, error) {
	db := r.getDB(ctx)

	var ids []string
	err := db.Table("sync_tombstones").
		Where("entity_kind = ? AND deleted_at > ?", r.entityKind, since).
		Pluck("record_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones since %d: %w", since, err)
	}

	return ids, nil
}

// Save inserts a new entity
func (r *BaseRepository[T, F]) Save(ctx context.Context, entity *T) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Create(entity).Error
	if err != nil {
		return fmt.Errorf("failed to save entity: %w", err)
	}

	return nil
}

// SaveBatch inserts multiple entities in a single transaction
func (r *BaseRepository[T, F]) SaveBatch(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}

	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.CreateInBatches(entities, 100).Error // Batch size of 100
	if err != nil {
		return fmt.Errorf("failed to save batch entities: %w", err)
	}

	return nil
}

// WithTransaction executes a function within a database transaction
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(context.Context) error) (err error) {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", r)
		}
	}()

	ctx = context.WithValue(ctx, TxContextKey, tx)

	if err := fn(ctx); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
