package testing

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/utils"
)

// CreateTestTask inserts a live task with client-style timestamps
func (tdb *TestDB) CreateTestTask(text string, updatedAt int64) (*models.Task, error) {
	task := &models.Task{
		ID:         uuid.New().String(),
		Text:       text,
		Tag:        "General",
		Recurrence: models.RecurrenceNone,
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}
	if err := tdb.DB.Create(task).Error; err != nil {
		return nil, fmt.Errorf("failed to create test task: %w", err)
	}
	return task, nil
}

// CreateTestTag inserts a live tag
func (tdb *TestDB) CreateTestTag(name, color string) (*models.Tag, error) {
	now := utils.NowMillis()
	tag := &models.Tag{
		ID:        uuid.New().String(),
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tdb.DB.Create(tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create test tag: %w", err)
	}
	return tag, nil
}

// SoftDeleteTestTask marks a task deleted the way a syncing client would
func (tdb *TestDB) SoftDeleteTestTask(task *models.Task, deletedAt int64) error {
	task.DeletedAt = &deletedAt
	task.UpdatedAt = deletedAt
	return tdb.DB.Save(task).Error
}

// DefaultTagNames returns the names seeded by the tag migration
func DefaultTagNames() []string {
	return []string{"General", "Work", "Personal", "Research", "Design"}
}
