package businessflow

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
	"github.com/ixianhq/ixian-server/utils"
)

// TagFlow handles the REST-facing tag operations
type TagFlow interface {
	ListTags(ctx context.Context, since *int64) ([]dto.TagResponse, error)
	GetTag(ctx context.Context, id string) (*dto.TagResponse, error)
	CreateTag(ctx context.Context, req *dto.CreateTagRequest) (*dto.TagResponse, error)
	UpdateTag(ctx context.Context, id string, req *dto.UpdateTagRequest) (*dto.TagResponse, error)
	DeleteTag(ctx context.Context, id string) error
}

// TagListCache caches the full live tag listing; nil means caching is off
type TagListCache interface {
	TagCacheInvalidator
	Get(ctx context.Context) ([]dto.TagResponse, bool, error)
	Set(ctx context.Context, tags []dto.TagResponse) error
}

// TagFlowImpl implements TagFlow
type TagFlowImpl struct {
	tagRepo repository.TagRepository
	db      *gorm.DB
	cache   TagListCache
}

// NewTagFlow creates a new tag flow. cache may be nil.
func NewTagFlow(tagRepo repository.TagRepository, db *gorm.DB, cache TagListCache) TagFlow {
	return &TagFlowImpl{
		tagRepo: tagRepo,
		db:      db,
		cache:   cache,
	}
}

// ListTags returns tags ordered by name. Without a since cursor it returns
// live tags only (served from cache when available); with one it returns
// every tag modified after the cursor, soft-deleted included, so polling
// clients observe deletions.
func (f *TagFlowImpl) ListTags(ctx context.Context, since *int64) ([]dto.TagResponse, error) {
	if since != nil {
		tags, err := f.tagRepo.ListSince(ctx, *since)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}
		return toTagResponses(tags), nil
	}

	if f.cache != nil {
		if cached, ok, err := f.cache.Get(ctx); err != nil {
			log.Printf("Warning: tag cache read failed: %v", err)
		} else if ok {
			return cached, nil
		}
	}

	tags, err := f.tagRepo.ListLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	responses := toTagResponses(tags)

	if f.cache != nil {
		if err := f.cache.Set(ctx, responses); err != nil {
			log.Printf("Warning: tag cache write failed: %v", err)
		}
	}

	return responses, nil
}

// GetTag returns a single live tag by identifier
func (f *TagFlowImpl) GetTag(ctx context.Context, id string) (*dto.TagResponse, error) {
	tag, found, err := f.tagRepo.ByRecordID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if !found || tag.DeletedAt != nil {
		return nil, NewBusinessError("TAG_NOT_FOUND", "tag not found", ErrTagNotFound)
	}

	resp := ToTagResponse(tag)
	return &resp, nil
}

// CreateTag creates a tag. Offline-first clients may assert their own
// timestamps; when omitted the server stamps both.
func (f *TagFlowImpl) CreateTag(ctx context.Context, req *dto.CreateTagRequest) (*dto.TagResponse, error) {
	holder, err := f.tagRepo.LiveByName(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check tag name: %w", err)
	}
	if holder != nil {
		return nil, NewBusinessErrorf("TAG_NAME_EXISTS", "tag %q already exists", ErrTagNameExists, req.Name)
	}

	now := utils.NowMillis()
	tag := &models.Tag{
		Name:      req.Name,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.CreatedAt != nil {
		tag.CreatedAt = *req.CreatedAt
	}
	if req.UpdatedAt != nil {
		tag.UpdatedAt = *req.UpdatedAt
	}

	if err := f.tagRepo.Save(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	f.invalidateCache(ctx)

	resp := ToTagResponse(tag)
	return &resp, nil
}

// UpdateTag applies a partial update; renames are checked against live tags
func (f *TagFlowImpl) UpdateTag(ctx context.Context, id string, req *dto.UpdateTagRequest) (*dto.TagResponse, error) {
	tag, found, err := f.tagRepo.ByRecordID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	if !found || tag.DeletedAt != nil {
		return nil, NewBusinessError("TAG_NOT_FOUND", "tag not found", ErrTagNotFound)
	}

	if req.Name != nil && *req.Name != tag.Name {
		holder, err := f.tagRepo.LiveByName(ctx, *req.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to check tag name: %w", err)
		}
		if holder != nil && holder.ID != tag.ID {
			return nil, NewBusinessErrorf("TAG_NAME_EXISTS", "tag %q already exists", ErrTagNameExists, *req.Name)
		}
		tag.Name = *req.Name
	}
	if req.Color != nil {
		tag.Color = *req.Color
	}
	tag.UpdatedAt = utils.NowMillis()

	if err := f.tagRepo.Upsert(ctx, tag); err != nil {
		return nil, fmt.Errorf("failed to update tag: %w", err)
	}
	f.invalidateCache(ctx)

	resp := ToTagResponse(tag)
	return &resp, nil
}

// DeleteTag soft-deletes a tag. Default tags are never deletable.
func (f *TagFlowImpl) DeleteTag(ctx context.Context, id string) error {
	tag, found, err := f.tagRepo.ByRecordID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get tag: %w", err)
	}
	if !found || tag.DeletedAt != nil {
		return NewBusinessError("TAG_NOT_FOUND", "tag not found", ErrTagNotFound)
	}
	if tag.IsDefault {
		return NewBusinessError("DEFAULT_TAG_PROTECTED", "default tags cannot be deleted", ErrDefaultTagProtected)
	}

	deleted, err := f.tagRepo.SoftDelete(ctx, id, utils.NowMillis())
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	if !deleted {
		return NewBusinessError("TAG_NOT_FOUND", "tag not found", ErrTagNotFound)
	}
	f.invalidateCache(ctx)

	return nil
}

func (f *TagFlowImpl) invalidateCache(ctx context.Context) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Invalidate(ctx); err != nil {
		log.Printf("Warning: failed to invalidate tag cache: %v", err)
	}
}

func toTagResponses(tags []*models.Tag) []dto.TagResponse {
	responses := make([]dto.TagResponse, 0, len(tags))
	for _, t := range tags {
		responses = append(responses, ToTagResponse(t))
	}
	return responses
}
