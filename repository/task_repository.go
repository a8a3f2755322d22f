package repository

import (
	"context"
	"fmt"

	"github.com/ixianhq/ixian-server/models"
	"gorm.io/gorm"
)

// TaskRepositoryImpl implements TaskRepository interface
type TaskRepositoryImpl struct {
	*BaseRepository[models.Task, models.TaskFilter]
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &TaskRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Task, models.TaskFilter](db, models.EntityKindTask),
	}
}

// applyFilter applies filter criteria to a GORM query
func (r *TaskRepositoryImpl) applyFilter(query *gorm.DB, filter models.TaskFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Tag != nil {
		query = query.Where("tag = ?", *filter.Tag)
	}
	if filter.Completed != nil {
		query = query.Where("completed = ?", *filter.Completed)
	}
	if filter.Important != nil {
		query = query.Where("important = ?", *filter.Important)
	}
	if filter.UpdatedAfter != nil {
		query = query.Where("updated_at > ?", *filter.UpdatedAfter)
	}
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	return query
}

// ByFilter retrieves tasks based on filter criteria
func (r *TaskRepositoryImpl) ByFilter(ctx context.Context, filter models.TaskFilter, orderBy string, limit, offset int) ([]*models.Task, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Task{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Task
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of tasks matching the filter
func (r *TaskRepositoryImpl) Count(ctx context.Context, filter models.TaskFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Task{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any task matching the filter exists
func (r *TaskRepositoryImpl) Exists(ctx context.Context, filter models.TaskFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// SoftDelete marks a task deleted by stamping deleted_at and bumping
// updated_at so the deletion replicates through sync deltas.
// Returns false when no such task exists.
func (r *TaskRepositoryImpl) SoftDelete(ctx context.Context, id string, nowMillis int64) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	res := db.Model(&models.Task{}).Where("id = ?", id).
		Updates(map[string]any{"deleted_at": nowMillis, "updated_at": nowMillis})
	if res.Error != nil {
		err = fmt.Errorf("failed to soft delete task %s: %w", id, res.Error)
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// HardDelete physically removes a task row. Tombstone bookkeeping is the
// caller's responsibility, composed in the same transaction.
func (r *TaskRepositoryImpl) HardDelete(ctx context.Context, id string) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	res := db.Where("id = ?", id).Delete(&models.Task{})
	if res.Error != nil {
		err = fmt.Errorf("failed to hard delete task %s: %w", id, res.Error)
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// ListDueBetween returns live, incomplete tasks whose due time falls in the
// given window. Used by the reminder scheduler.
func (r *TaskRepositoryImpl) ListDueBetween(ctx context.Context, startMillis, endMillis int64) ([]*models.Task, error) {
	db := r.getDB(ctx)
	var rows []*models.Task
	err := db.Model(&models.Task{}).
		Where("due_at IS NOT NULL AND due_at >= ? AND due_at <= ?", startMillis, endMillis).
		Where("completed = ? AND deleted_at IS NULL", false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListDeletedBefore returns soft-deleted tasks whose deletion is older than
// the cutoff, i.e. candidates for the retention sweep.
func (r *TaskRepositoryImpl) ListDeletedBefore(ctx context.Context, cutoffMillis int64) ([]*models.Task, error) {
	db := r.getDB(ctx)
	var rows []*models.Task
	err := db.Model(&models.Task{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoffMillis).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
