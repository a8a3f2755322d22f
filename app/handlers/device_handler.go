// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/app/services"
)

// DeviceHandlerInterface defines the contract for device handlers
type DeviceHandlerInterface interface {
	Register(c fiber.Ctx) error
}

// DeviceHandler issues device tokens for the sync endpoints
type DeviceHandler struct {
	tokenService services.TokenService
	tokenTTL     time.Duration
	validator    *validator.Validate
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(tokenService services.TokenService, tokenTTL time.Duration) *DeviceHandler {
	return &DeviceHandler{
		tokenService: tokenService,
		tokenTTL:     tokenTTL,
		validator:    validator.New(),
	}
}

func (h *DeviceHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *DeviceHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Register issues a signed token for the given device identifier
func (h *DeviceHandler) Register(c fiber.Ctx) error {
	var req dto.RegisterDeviceRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			details := make(map[string]string)
			for _, fieldError := range validationErrors {
				details[fieldError.Field()] = getValidationErrorMessage(fieldError)
			}
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", err.Error())
	}

	token, err := h.tokenService.GenerateDeviceToken(req.DeviceID)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to register device", "REGISTER_DEVICE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Device registered successfully", dto.RegisterDeviceResponse{
		Token:     token,
		ExpiresIn: int64(h.tokenTTL.Seconds()),
	})
}
