package utils

import (
	"time"
)

// Sync and retention constants
const (
	// DefaultRetentionWindow is how long soft-deleted records and tombstones
	// are kept before the retention sweep removes them. It must comfortably
	// exceed the longest realistic client offline duration.
	DefaultRetentionWindow = 30 * 24 * time.Hour

	// DefaultSweepInterval is how often the retention sweep runs
	DefaultSweepInterval = time.Hour
)

// Reminder scheduler constants
const (
	// ReminderLead is how far before a task's due time the reminder fires
	ReminderLead = 15 * time.Minute

	// ReminderSlack widens the reminder window on both sides to absorb
	// scheduler timing jitter between polls
	ReminderSlack = 30 * time.Second

	// DefaultReminderInterval is how often the reminder poll runs
	DefaultReminderInterval = time.Minute
)

// Record field limits shared by validation and migrations
const (
	MaxTaskTextLen        = 500
	MaxTaskDescriptionLen = 2000
	MaxTagNameLen         = 50
)
