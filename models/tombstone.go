package models

// Tombstone records the identifier of a hard-deleted record so peers that
// were offline during the physical removal can still observe the deletion.
// Table: sync_tombstones
// Rows are pruned by the retention sweep once older than the retention window
type Tombstone struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EntityKind string `gorm:"type:varchar(16);not null;index:idx_tombstones_kind_deleted,priority:1" json:"entity_kind"`
	RecordID   string `gorm:"type:uuid;not null" json:"record_id"`
	DeletedAt  int64  `gorm:"type:bigint;not null;index:idx_tombstones_kind_deleted,priority:2" json:"deleted_at"`
}

func (Tombstone) TableName() string { return "sync_tombstones" }
