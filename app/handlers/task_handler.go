// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/app/middleware"
	businessflow "github.com/ixianhq/ixian-server/business_flow"
	"github.com/ixianhq/ixian-server/models"
)

// TaskHandlerInterface defines the contract for task handlers
type TaskHandlerInterface interface {
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Sync(c fiber.Ctx) error
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	flow      businessflow.TaskFlow
	syncFlow  businessflow.TaskSyncFlow
	validator *validator.Validate
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(flow businessflow.TaskFlow, syncFlow businessflow.TaskSyncFlow) *TaskHandler {
	return &TaskHandler{
		flow:      flow,
		syncFlow:  syncFlow,
		validator: validator.New(),
	}
}

func (h *TaskHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TaskHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns live tasks, optionally filtered by tag, completed, or important
func (h *TaskHandler) List(c fiber.Ctx) error {
	var req dto.ListTasksRequest
	if tag := c.Query("tag"); tag != "" {
		req.Tag = &tag
	}
	if v := c.Query("completed"); v != "" {
		b := v == "true" || v == "1"
		req.Completed = &b
	}
	if v := c.Query("important"); v != "" {
		b := v == "true" || v == "1"
		req.Important = &b
	}

	result, err := h.flow.ListTasks(h.createRequestContext(c), &req)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tasks", "LIST_TASKS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tasks retrieved successfully", result)
}

// Get returns a single task by identifier
func (h *TaskHandler) Get(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.flow.GetTask(h.createRequestContext(c), id)
	if err != nil {
		if businessflow.IsTaskNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task not found", "TASK_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get task", "GET_TASK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task retrieved successfully", result)
}

// Create creates a new task
func (h *TaskHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.validationError(c, err)
	}

	result, err := h.flow.CreateTask(h.createRequestContext(c), &req)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task", "CREATE_TASK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Task created successfully", result)
}

// Update applies a partial update to a task
func (h *TaskHandler) Update(c fiber.Ctx) error {
	id := c.Params("id")

	var req dto.UpdateTaskRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.validationError(c, err)
	}

	result, err := h.flow.UpdateTask(h.createRequestContext(c), id, &req)
	if err != nil {
		if businessflow.IsTaskNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task not found", "TASK_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update task", "UPDATE_TASK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task updated successfully", result)
}

// Delete soft-deletes a task so the deletion propagates through sync
func (h *TaskHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.flow.DeleteTask(h.createRequestContext(c), id); err != nil {
		if businessflow.IsTaskNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Task not found", "TASK_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task", "DELETE_TASK_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Task deleted successfully", nil)
}

// Sync reconciles a client task batch and returns the outbound delta
func (h *TaskHandler) Sync(c fiber.Ctx) error {
	var req dto.TaskSyncRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	if deviceID, ok := c.Locals("device_id").(string); ok {
		metadata.SetDeviceID(deviceID)
	}

	result, stats, err := h.syncFlow.Sync(h.createRequestContext(c), &req, metadata)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to sync tasks", "SYNC_TASKS_FAILED", nil)
	}

	middleware.RecordSyncBatch(models.EntityKindTask, stats.Accepted, stats.Skipped, stats.Rejected)

	// A batch where every single record was rejected is a client error
	if len(req.Records) > 0 && stats.Rejected == len(req.Records) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "All records in batch were rejected", "ALL_RECORDS_REJECTED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tasks synced successfully", result)
}

func (h *TaskHandler) validationError(c fiber.Ctx, err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		details := make(map[string]string)
		for _, fieldError := range validationErrors {
			details[fieldError.Field()] = getValidationErrorMessage(fieldError)
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
}

func (h *TaskHandler) createRequestContext(c fiber.Ctx) context.Context {
	return context.WithValue(context.Background(), businessflow.RequestIDKey, c.Get("X-Request-ID"))
}
