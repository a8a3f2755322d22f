// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/ixianhq/ixian-server/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// SyncStore is the persistence contract the reconciliation engine consumes.
// T is the pointer record type (e.g. *models.Task). The store never applies
// business rules; lookups with the ForUpdate variant take a row lock so
// concurrent reconciliations of the same record serialize.
type SyncStore[T models.Syncable] interface {
	ByRecordID(ctx context.Context, id string) (T, bool, error)
	ByRecordIDForUpdate(ctx context.Context, id string) (T, bool, error)
	Upsert(ctx context.Context, record T) error
	ListModifiedSince(ctx context.Context, since int64) ([]T, error)
	ListTombstonesSince(ctx context.Context, since int64) ([]string, error)
}

// TaskRepository defines operations for tasks
type TaskRepository interface {
	Repository[models.Task, models.TaskFilter]
	SyncStore[*models.Task]
	SoftDelete(ctx context.Context, id string, nowMillis int64) (bool, error)
	HardDelete(ctx context.Context, id string) (bool, error)
	ListDueBetween(ctx context.Context, startMillis, endMillis int64) ([]*models.Task, error)
	ListDeletedBefore(ctx context.Context, cutoffMillis int64) ([]*models.Task, error)
}

// TagRepository defines operations for tags
type TagRepository interface {
	Repository[models.Tag, models.TagFilter]
	SyncStore[*models.Tag]
	LiveByName(ctx context.Context, name string) (*models.Tag, error)
	ListLive(ctx context.Context) ([]*models.Tag, error)
	ListSince(ctx context.Context, since int64) ([]*models.Tag, error)
	SoftDelete(ctx context.Context, id string, nowMillis int64) (bool, error)
	HardDelete(ctx context.Context, id string) (bool, error)
	ListDeletedBefore(ctx context.Context, cutoffMillis int64) ([]*models.Tag, error)
}

// TombstoneRepository defines operations for the hard-delete tombstone log
type TombstoneRepository interface {
	Record(ctx context.Context, entityKind, recordID string, deletedAtMillis int64) error
	ListSince(ctx context.Context, entityKind string, sinceMillis int64) ([]string, error)
	PruneBefore(ctx context.Context, cutoffMillis int64) error
}

// ReminderLogRepository defines operations for the durable reminder
// idempotency log
type ReminderLogRepository interface {
	MarkSent(ctx context.Context, taskID string, sentAtMillis int64) error
	WasSent(ctx context.Context, taskID string) (bool, error)
	PruneBefore(ctx context.Context, cutoffMillis int64) error
}
