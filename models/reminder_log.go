package models

// ReminderLog is the durable idempotency record for task reminders. A row
// per task replaces the in-memory "already reminded" set so duplicate
// suppression survives restarts and works across replicas. Rows are pruned
// by the retention sweep.
// Table: reminder_log
type ReminderLog struct {
	TaskID string `gorm:"type:uuid;primaryKey" json:"task_id"`
	SentAt int64  `gorm:"type:bigint;not null;index:idx_reminder_log_sent_at" json:"sent_at"`
}

func (ReminderLog) TableName() string { return "reminder_log" }
