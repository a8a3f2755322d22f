package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ixianhq/ixian-server/models"
	"gorm.io/gorm"
)

// TagRepositoryImpl implements TagRepository interface
type TagRepositoryImpl struct {
	*BaseRepository[models.Tag, models.TagFilter]
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &TagRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Tag, models.TagFilter](db, models.EntityKindTag),
	}
}

// LiveByName retrieves the non-deleted tag holding the given name, or nil.
// Name comparison is a case-sensitive exact match.
func (r *TagRepositoryImpl) LiveByName(ctx context.Context, name string) (*models.Tag, error) {
	db := r.getDB(ctx)
	var row models.Tag
	err := db.Where("name = ? AND deleted_at IS NULL", name).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListLive returns all non-deleted tags ordered by name
func (r *TagRepositoryImpl) ListLive(ctx context.Context) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	var rows []*models.Tag
	if err := db.Model(&models.Tag{}).Where("deleted_at IS NULL").Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSince returns tags updated after the cursor, ordered by name.
// Soft-deleted tags are included so clients can converge on deletions.
func (r *TagRepositoryImpl) ListSince(ctx context.Context, since int64) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	var rows []*models.Tag
	if err := db.Model(&models.Tag{}).Where("updated_at > ?", since).Order("name").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TagRepositoryImpl) applyFilter(query *gorm.DB, filter models.TagFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.IsDefault != nil {
		query = query.Where("is_default = ?", *filter.IsDefault)
	}
	if filter.UpdatedAfter != nil {
		query = query.Where("updated_at > ?", *filter.UpdatedAfter)
	}
	if !filter.IncludeDeleted {
		query = query.Where("deleted_at IS NULL")
	}
	return query
}

// ByFilter retrieves tags based on filter criteria
func (r *TagRepositoryImpl) ByFilter(ctx context.Context, filter models.TagFilter, orderBy string, limit, offset int) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "name"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.Tag
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of tags matching the filter
func (r *TagRepositoryImpl) Count(ctx context.Context, filter models.TagFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Tag{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any tag matching the filter exists
func (r *TagRepositoryImpl) Exists(ctx context.Context, filter models.TagFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// SoftDelete marks a tag deleted and bumps updated_at. Default-tag
// protection is enforced by the guard before this is reached.
func (r *TagRepositoryImpl) SoftDelete(ctx context.Context, id string, nowMillis int64) (bool, error) {
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

	res := db.Model(&models.Tag{}).Where("id = ?", id).
		Updates(map[string]any{"deleted_at": nowMillis, "updated_at": nowMillis})
	if res.Error != nil {
		err = fmt.Errorf("failed to soft delete tag %s: %w", id, res.Error)
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// HardDelete physically removes a tag row. Tombstone bookkeeping is the
// caller's responsibility, composed in the same transaction.
func (r *TagRepositoryImpl) HardDelete(ctx context.Context, id string) (bool, error) {
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

	res := db.Where("id = ?", id).Delete(&models.Tag{})
	if res.Error != nil {
		err = fmt.Errorf("failed to hard delete tag %s: %w", id, res.Error)
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// ListDeletedBefore returns soft-deleted tags older than the cutoff.
// Default tags never reach this state, so the sweep cannot remove them.
func (r *TagRepositoryImpl) ListDeletedBefore(ctx context.Context, cutoffMillis int64) ([]*models.Tag, error) {
	db := r.getDB(ctx)
	var rows []*models.Tag
	err := db.Model(&models.Tag{}).
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoffMillis).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
