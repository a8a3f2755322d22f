package businessflow

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/models"
	"github.com/ixianhq/ixian-server/repository"
	"github.com/ixianhq/ixian-server/utils"
)

// TaskFlow handles the REST-facing task operations
type TaskFlow interface {
	ListTasks(ctx context.Context, req *dto.ListTasksRequest) ([]dto.TaskResponse, error)
	GetTask(ctx context.Context, id string) (*dto.TaskResponse, error)
	CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	UpdateTask(ctx context.Context, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	DeleteTask(ctx context.Context, id string) error
	PurgeTask(ctx context.Context, id string) error
}

// TaskFlowImpl implements TaskFlow
type TaskFlowImpl struct {
	taskRepo      repository.TaskRepository
	tombstoneRepo repository.TombstoneRepository
	db            *gorm.DB
}

// NewTaskFlow creates a new task flow
func NewTaskFlow(taskRepo repository.TaskRepository, tombstoneRepo repository.TombstoneRepository, db *gorm.DB) TaskFlow {
	return &TaskFlowImpl{
		taskRepo:      taskRepo,
		tombstoneRepo: tombstoneRepo,
		db:            db,
	}
}

// ListTasks returns live tasks matching the optional filters, newest first
func (f *TaskFlowImpl) ListTasks(ctx context.Context, req *dto.ListTasksRequest) ([]dto.TaskResponse, error) {
	filter := models.TaskFilter{
		Tag:       req.Tag,
		Completed: req.Completed,
		Important: req.Important,
	}

	tasks, err := f.taskRepo.ByFilter(ctx, filter, "", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	responses := make([]dto.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		responses = append(responses, ToTaskResponse(t))
	}
	return responses, nil
}

// GetTask returns a single live task by identifier
func (f *TaskFlowImpl) GetTask(ctx context.Context, id string) (*dto.TaskResponse, error) {
	task, found, err := f.taskRepo.ByRecordID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !found || task.DeletedAt != nil {
		return nil, NewBusinessError("TASK_NOT_FOUND", "task not found", ErrTaskNotFound)
	}

	resp := ToTaskResponse(task)
	return &resp, nil
}

// CreateTask creates a task with a server-assigned identifier and timestamps
func (f *TaskFlowImpl) CreateTask(ctx context.Context, req *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	now := utils.NowMillis()
	task := &models.Task{
		Text:          req.Text,
		Description:   req.Description,
		Completed:     req.Completed,
		Important:     req.Important,
		Tag:           req.Tag,
		DueAt:         req.DueAt,
		Recurrence:    req.Recurrence,
		RecurrenceAlt: req.RecurrenceAlt,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if task.Tag == "" {
		task.Tag = "General"
	}

	if err := f.taskRepo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	resp := ToTaskResponse(task)
	return &resp, nil
}

// UpdateTask applies a partial update and bumps updated_at
func (f *TaskFlowImpl) UpdateTask(ctx context.Context, id string, req *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, found, err := f.taskRepo.ByRecordID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !found || task.DeletedAt != nil {
		return nil, NewBusinessError("TASK_NOT_FOUND", "task not found", ErrTaskNotFound)
	}

	if req.Text != nil {
		task.Text = *req.Text
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Completed != nil {
		task.Completed = *req.Completed
	}
	if req.Important != nil {
		task.Important = *req.Important
	}
	if req.Tag != nil {
		task.Tag = *req.Tag
	}
	if req.DueAt != nil {
		task.DueAt = req.DueAt
	}
	if req.Recurrence != nil {
		task.Recurrence = *req.Recurrence
	}
	if req.RecurrenceAlt != nil {
		task.RecurrenceAlt = *req.RecurrenceAlt
	}
	task.UpdatedAt = utils.NowMillis()

	if err := f.taskRepo.Upsert(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	resp := ToTaskResponse(task)
	return &resp, nil
}

// DeleteTask soft-deletes a task; the row stays behind so the deletion
// propagates to other clients through sync
func (f *TaskFlowImpl) DeleteTask(ctx context.Context, id string) error {
	deleted, err := f.taskRepo.SoftDelete(ctx, id, utils.NowMillis())
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return NewBusinessError("TASK_NOT_FOUND", "task not found", ErrTaskNotFound)
	}
	return nil
}

// PurgeTask physically removes a task and writes a tombstone in the same
// transaction, so clients past their cursor still learn about the removal
func (f *TaskFlowImpl) PurgeTask(ctx context.Context, id string) error {
	now := utils.NowMillis()
	return repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		removed, err := f.taskRepo.HardDelete(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to purge task: %w", err)
		}
		if !removed {
			return NewBusinessError("TASK_NOT_FOUND", "task not found", ErrTaskNotFound)
		}
		return f.tombstoneRepo.Record(txCtx, models.EntityKindTask, id, now)
	})
}
