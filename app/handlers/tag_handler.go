// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/app/middleware"
	businessflow "github.com/ixianhq/ixian-server/business_flow"
	"github.com/ixianhq/ixian-server/models"
)

// TagHandlerInterface defines the contract for tag handlers
type TagHandlerInterface interface {
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Create(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	Sync(c fiber.Ctx) error
}

// TagHandler handles tag-related HTTP requests
type TagHandler struct {
	flow      businessflow.TagFlow
	syncFlow  businessflow.TagSyncFlow
	validator *validator.Validate
}

// NewTagHandler creates a new tag handler
func NewTagHandler(flow businessflow.TagFlow, syncFlow businessflow.TagSyncFlow) *TagHandler {
	return &TagHandler{
		flow:      flow,
		syncFlow:  syncFlow,
		validator: validator.New(),
	}
}

func (h *TagHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TagHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List returns tags ordered by name. An optional since query parameter
// (Unix milliseconds) switches to delta mode, which includes soft-deleted
// tags so polling clients observe deletions.
func (h *TagHandler) List(c fiber.Ctx) error {
	var since *int64
	if v := c.Query("since"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid since parameter", "INVALID_SINCE", nil)
		}
		since = &parsed
	}

	result, err := h.flow.ListTags(h.createRequestContext(c), since)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list tags", "LIST_TAGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags retrieved successfully", result)
}

// Get returns a single tag by identifier
func (h *TagHandler) Get(c fiber.Ctx) error {
	id := c.Params("id")

	result, err := h.flow.GetTag(h.createRequestContext(c), id)
	if err != nil {
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", "TAG_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get tag", "GET_TAG_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag retrieved successfully", result)
}

// Create creates a new tag
func (h *TagHandler) Create(c fiber.Ctx) error {
	var req dto.CreateTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.validationError(c, err)
	}

	result, err := h.flow.CreateTag(h.createRequestContext(c), &req)
	if err != nil {
		if businessflow.IsTagNameExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Tag name already exists", "TAG_NAME_EXISTS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create tag", "CREATE_TAG_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Tag created successfully", result)
}

// Update applies a partial update to a tag
func (h *TagHandler) Update(c fiber.Ctx) error {
	id := c.Params("id")

	var req dto.UpdateTagRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.validationError(c, err)
	}

	result, err := h.flow.UpdateTag(h.createRequestContext(c), id, &req)
	if err != nil {
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", "TAG_NOT_FOUND", nil)
		}
		if businessflow.IsTagNameExists(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Tag name already exists", "TAG_NAME_EXISTS", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update tag", "UPDATE_TAG_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag updated successfully", result)
}

// Delete soft-deletes a tag. Default tags cannot be deleted.
func (h *TagHandler) Delete(c fiber.Ctx) error {
	id := c.Params("id")

	if err := h.flow.DeleteTag(h.createRequestContext(c), id); err != nil {
		if businessflow.IsTagNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Tag not found", "TAG_NOT_FOUND", nil)
		}
		if businessflow.IsDefaultTagProtected(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Default tags cannot be deleted", "DEFAULT_TAG_PROTECTED", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete tag", "DELETE_TAG_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tag deleted successfully", nil)
}

// Sync reconciles a client tag batch and returns the outbound delta
func (h *TagHandler) Sync(c fiber.Ctx) error {
	var req dto.TagSyncRequest
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
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to sync tags", "SYNC_TAGS_FAILED", nil)
	}

	middleware.RecordSyncBatch(models.EntityKindTag, stats.Accepted, stats.Skipped, stats.Rejected)

	// A batch where every single record was rejected is a client error
	if len(req.Records) > 0 && stats.Rejected == len(req.Records) {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "All records in batch were rejected", "ALL_RECORDS_REJECTED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tags synced successfully", result)
}

func (h *TagHandler) validationError(c fiber.Ctx, err error) error {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		details := make(map[string]string)
		for _, fieldError := range validationErrors {
			details[fieldError.Field()] = getValidationErrorMessage(fieldError)
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
}

func (h *TagHandler) createRequestContext(c fiber.Ctx) context.Context {
	return context.WithValue(context.Background(), businessflow.RequestIDKey, c.Get("X-Request-ID"))
}
