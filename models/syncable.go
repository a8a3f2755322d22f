package models

// Syncable is the minimal capability the reconciliation engine needs from a
// record. Both entity kinds (tasks, tags) implement it, which keeps the
// last-write-wins merge generic instead of duplicated per entity.
type Syncable interface {
	// RecordID returns the globally unique identifier, immutable once assigned
	RecordID() string
	// CreatedAtMillis returns the creation timestamp in Unix milliseconds
	CreatedAtMillis() int64
	// UpdatedAtMillis returns the modification timestamp in Unix milliseconds.
	// It is the sole authority for conflict resolution.
	UpdatedAtMillis() int64
	// DeletedAtMillis returns the soft-delete timestamp, or nil for a live record
	DeletedAtMillis() *int64
}

// Entity kind names used in tombstone rows and metrics labels
const (
	EntityKindTask = "tasks"
	EntityKindTag  = "tags"
)
