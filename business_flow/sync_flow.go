package businessflow

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
)

// SyncStats summarizes how a batch fared, for logging and metrics
type SyncStats struct {
	Accepted int
	Skipped  int
	Rejected int
}

// TaskSyncFlow handles the bidirectional task sync operation
type TaskSyncFlow interface {
	Sync(ctx context.Context, req *dto.TaskSyncRequest, metadata *ClientMetadata) (*dto.TaskSyncResponse, *SyncStats, error)
}

// TagSyncFlow handles the bidirectional tag sync operation
type TagSyncFlow interface {
	Sync(ctx context.Context, req *dto.TagSyncRequest, metadata *ClientMetadata) (*dto.TagSyncResponse, *SyncStats, error)
}

// TaskSyncFlowImpl implements TaskSyncFlow
type TaskSyncFlowImpl struct {
	engine    *SyncEngine[*models.Task]
	db        *gorm.DB
	validator *validator.Validate
}

// NewTaskSyncFlow creates a new task sync flow
func NewTaskSyncFlow(taskRepo repository.TaskRepository, db *gorm.DB) TaskSyncFlow {
	return &TaskSyncFlowImpl{
		engine:    NewSyncEngine[*models.Task](taskRepo, nil),
		db:        db,
		validator: validator.New(),
	}
}

// Sync reconciles one incoming task batch inside a single transaction and
// returns the outbound delta. Malformed records are dropped individually so
// one bad entry cannot hold the rest of the batch hostage.
func (f *TaskSyncFlowImpl) Sync(ctx context.Context, req *dto.TaskSyncRequest, metadata *ClientMetadata) (*dto.TaskSyncResponse, *SyncStats, error) {
	incoming := make([]*models.Task, 0, len(req.Records))
	malformed := 0
	for i := range req.Records {
		rec := &req.Records[i]
		if err := f.validator.Struct(rec); err != nil {
			malformed++
			continue
		}
		incoming = append(incoming, taskFromSyncRecord(rec))
	}

	var outcome *SyncOutcome[*models.Task]
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var txErr error
		outcome, txErr = f.engine.Reconcile(txCtx, incoming, req.Cursor)
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}

	stats := &SyncStats{
		Accepted: outcome.Accepted,
		Skipped:  outcome.Skipped,
		Rejected: outcome.Rejected + malformed,
	}
	if stats.Rejected > 0 {
		log.Printf("Task sync dropped %d record(s) (request_id=%s)", stats.Rejected, requestID(metadata))
	}

	resp := &dto.TaskSyncResponse{
		Records:        make([]dto.TaskSyncRecord, 0, len(outcome.Records)),
		ServerTime:     outcome.ServerTime,
		HardDeletedIDs: outcome.HardDeletedIDs,
	}
	for _, t := range outcome.Records {
		resp.Records = append(resp.Records, taskToSyncRecord(t))
	}

	return resp, stats, nil
}

// TagSyncFlowImpl implements TagSyncFlow
type TagSyncFlowImpl struct {
	engine    *SyncEngine[*models.Tag]
	db        *gorm.DB
	validator *validator.Validate
	cache     TagCacheInvalidator
}

// TagCacheInvalidator drops cached tag listings after a write; nil-safe via
// the noop implementation
type TagCacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// NewTagSyncFlow creates a new tag sync flow. cache may be nil.
func NewTagSyncFlow(tagRepo repository.TagRepository, db *gorm.DB, cache TagCacheInvalidator) TagSyncFlow {
	return &TagSyncFlowImpl{
		engine:    NewSyncEngine[*models.Tag](tagRepo, NewTagGuard(tagRepo)),
		db:        db,
		validator: validator.New(),
		cache:     cache,
	}
}

// Sync reconciles one incoming tag batch. Tag-specific rules (live-name
// uniqueness, default-tag deletion protection) run inside the engine via the
// guard, so a conflicting rename is rejected without aborting the batch.
func (f *TagSyncFlowImpl) Sync(ctx context.Context, req *dto.TagSyncRequest, metadata *ClientMetadata) (*dto.TagSyncResponse, *SyncStats, error) {
	incoming := make([]*models.Tag, 0, len(req.Records))
	malformed := 0
	for i := range req.Records {
		rec := &req.Records[i]
		if err := f.validator.Struct(rec); err != nil {
			malformed++
			continue
		}
		incoming = append(incoming, tagFromSyncRecord(rec))
	}

	var outcome *SyncOutcome[*models.Tag]
	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		var txErr error
		outcome, txErr = f.engine.Reconcile(txCtx, incoming, req.Cursor)
		return txErr
	})
	if err != nil {
		return nil, nil, err
	}

	if outcome.Accepted > 0 && f.cache != nil {
		if cacheErr := f.cache.Invalidate(ctx); cacheErr != nil {
			log.Printf("Warning: failed to invalidate tag cache after sync: %v", cacheErr)
		}
	}

	stats := &SyncStats{
		Accepted: outcome.Accepted,
		Skipped:  outcome.Skipped,
		Rejected: outcome.Rejected + malformed,
	}
	if stats.Rejected > 0 {
		log.Printf("Tag sync dropped %d record(s) (request_id=%s)", stats.Rejected, requestID(metadata))
	}

	resp := &dto.TagSyncResponse{
		Records:        make([]dto.TagSyncRecord, 0, len(outcome.Records)),
		ServerTime:     outcome.ServerTime,
		HardDeletedIDs: outcome.HardDeletedIDs,
	}
	for _, t := range outcome.Records {
		resp.Records = append(resp.Records, tagToSyncRecord(t))
	}

	return resp, stats, nil
}

func requestID(metadata *ClientMetadata) string {
	if metadata == nil {
		return ""
	}
	return metadata.RequestID
}
