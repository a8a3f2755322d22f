package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag represents a user-defined task category
// Table: tags
// Name uniqueness holds only among live rows (deleted_at IS NULL); a
// soft-deleted tag's name may be reused. The partial unique index lives in
// the migration; business rules are enforced by the tag guard, not here.
// Default tags are seeded at migration time and can be renamed but never
// deleted. Color is a hex string like '#14b8a6'.
type Tag struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(50);not null;index:idx_tags_name" json:"name"`
	Color     string `gorm:"type:varchar(7);not null" json:"color"`
	IsDefault bool   `gorm:"not null;default:false" json:"is_default"`

	CreatedAt int64  `gorm:"type:bigint;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt int64  `gorm:"type:bigint;not null;autoUpdateTime:false;index:idx_tags_updated_at" json:"updated_at"`
	DeletedAt *int64 `gorm:"type:bigint;index:idx_tags_deleted_at" json:"deleted_at"`
}

func (Tag) TableName() string { return "tags" }

// BeforeCreate assigns an identifier when the client did not provide one
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (t *Tag) RecordID() string        { return t.ID }
func (t *Tag) CreatedAtMillis() int64  { return t.CreatedAt }
func (t *Tag) UpdatedAtMillis() int64  { return t.UpdatedAt }
func (t *Tag) DeletedAtMillis() *int64 { return t.DeletedAt }

// TagFilter represents filter criteria for tag queries
type TagFilter struct {
	ID             *string
	Name           *string
	IsDefault      *bool
	UpdatedAfter   *int64
	IncludeDeleted bool
}
