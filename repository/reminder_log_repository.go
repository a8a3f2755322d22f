package repository

import (
	"context"
	"fmt"

	"github.com/ixianhq/ixian-server/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReminderLogRepositoryImpl implements ReminderLogRepository interface
type ReminderLogRepositoryImpl struct {
	DB *gorm.DB
}

// NewReminderLogRepository creates a new reminder log repository
func NewReminderLogRepository(db *gorm.DB) ReminderLogRepository {
	return &ReminderLogRepositoryImpl{DB: db}
}

func (r *ReminderLogRepositoryImpl) getDB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(TxContextKey).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return r.DB
}

// MarkSent durably records that a reminder went out for the task. Inserting
// the same task id again is a no-op, which makes the scheduler idempotent
// across restarts and replicas.
func (r *ReminderLogRepositoryImpl) MarkSent(ctx context.Context, taskID string, sentAtMillis int64) error {
	db := r.getDB(ctx)
	row := models.ReminderLog{TaskID: taskID, SentAt: sentAtMillis}
	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent for task %s: %w", taskID, err)
	}
	return nil
}

// WasSent reports whether a reminder was already sent for the task
func (r *ReminderLogRepositoryImpl) WasSent(ctx context.Context, taskID string) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	err := db.Model(&models.ReminderLog{}).Where("task_id = ?", taskID).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check reminder log for task %s: %w", taskID, err)
	}
	return count > 0, nil
}

// PruneBefore removes reminder log rows older than the retention cutoff
func (r *ReminderLogRepositoryImpl) PruneBefore(ctx context.Context, cutoffMillis int64) error {
	db := r.getDB(ctx)
	if err := db.Where("sent_at < ?", cutoffMillis).Delete(&models.ReminderLog{}).Error; err != nil {
		return fmt.Errorf("failed to prune reminder log before %d: %w", cutoffMillis, err)
	}
	return nil
}
