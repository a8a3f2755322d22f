package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Valid recurrence values for tasks
const (
	RecurrenceNone    = "none"
	RecurrenceDaily   = "daily"
	RecurrenceWeekly  = "weekly"
	RecurrenceMonthly = "monthly"
)

// ValidRecurrence reports whether v is one of the accepted recurrence values
func ValidRecurrence(v string) bool {
	switch v {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// Task represents a TODO item owned by the user and replicated across devices
// Table: tasks
// Indexed by updated_at and deleted_at for sync delta queries
// All timestamps are Unix milliseconds; created_at/updated_at are
// client-asserted during sync, so GORM's automatic time tracking is disabled
// Tag references a tag by name, not by foreign key; orphaned references are
// permitted when the tag is later deleted
type Task struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	Text          string `gorm:"type:varchar(500);not null" json:"text"`
	Description   string `gorm:"type:varchar(2000);not null;default:''" json:"description"`
	Completed     bool   `gorm:"not null;default:false" json:"completed"`
	Important     bool   `gorm:"not null;default:false" json:"important"`
	Tag           string `gorm:"type:varchar(50);not null;default:'General'" json:"tag"`
	DueAt         *int64 `gorm:"type:bigint" json:"due_at"`
	Recurrence    string `gorm:"type:varchar(10);not null;default:'none'" json:"recurrence"`
	RecurrenceAlt bool   `gorm:"not null;default:false" json:"recurrence_alt"`

	CreatedAt int64  `gorm:"type:bigint;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt int64  `gorm:"type:bigint;not null;autoUpdateTime:false;index:idx_tasks_updated_at" json:"updated_at"`
	DeletedAt *int64 `gorm:"type:bigint;index:idx_tasks_deleted_at" json:"deleted_at"`
}

func (Task) TableName() string { return "tasks" }

// BeforeCreate assigns an identifier and normalizes zero timestamps
func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Recurrence == "" {
		t.Recurrence = RecurrenceNone
	}
	return nil
}

func (t *Task) RecordID() string        { return t.ID }
func (t *Task) CreatedAtMillis() int64  { return t.CreatedAt }
func (t *Task) UpdatedAtMillis() int64  { return t.UpdatedAt }
func (t *Task) DeletedAtMillis() *int64 { return t.DeletedAt }

// TaskFilter represents filter criteria for task queries
type TaskFilter struct {
	ID             *string
	Tag            *string
	Completed      *bool
	Important      *bool
	UpdatedAfter   *int64
	IncludeDeleted bool
}
