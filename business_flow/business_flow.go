// Package businessflow contains the business logic for the application.
package businessflow

import (
	"github.com/ixianhq/ixian-server/app/dto"
	"github.com/ixianhq/ixian-server/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for logging and tracing
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	DeviceID  string `json:"device_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// SetDeviceID sets the authenticated device ID
func (cm *ClientMetadata) SetDeviceID(deviceID string) {
	cm.DeviceID = deviceID
}

// ToTaskResponse converts a task model to its response DTO
func ToTaskResponse(t *models.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:            t.ID,
		Text:          t.Text,
		Description:   t.Description,
		Completed:     t.Completed,
		Important:     t.Important,
		Tag:           t.Tag,
		DueAt:         t.DueAt,
		Recurrence:    t.Recurrence,
		RecurrenceAlt: t.RecurrenceAlt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		DeletedAt:     t.DeletedAt,
	}
}

// ToTagResponse converts a tag model to its response DTO
func ToTagResponse(t *models.Tag) dto.TagResponse {
	return dto.TagResponse{
		ID:        t.ID,
		Name:      t.Name,
		Color:     t.Color,
		IsDefault: t.IsDefault,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		DeletedAt: t.DeletedAt,
	}
}

func taskFromSyncRecord(rec *dto.TaskSyncRecord) *models.Task {
	recurrence := rec.Recurrence
	if recurrence == "" {
		recurrence = models.RecurrenceNone
	}
	tag := rec.Tag
	if tag == "" {
		tag = "General"
	}
	return &models.Task{
		ID:            rec.ID,
		Text:          rec.Text,
		Description:   rec.Description,
		Completed:     rec.Completed,
		Important:     rec.Important,
		Tag:           tag,
		DueAt:         rec.DueAt,
		Recurrence:    recurrence,
		RecurrenceAlt: rec.RecurrenceAlt,
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		DeletedAt:     rec.DeletedAt,
	}
}

func taskToSyncRecord(t *models.Task) dto.TaskSyncRecord {
	return dto.TaskSyncRecord{
		ID:            t.ID,
		Text:          t.Text,
		Description:   t.Description,
		Completed:     t.Completed,
		Important:     t.Important,
		Tag:           t.Tag,
		DueAt:         t.DueAt,
		Recurrence:    t.Recurrence,
		RecurrenceAlt: t.RecurrenceAlt,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		DeletedAt:     t.DeletedAt,
	}
}

func tagFromSyncRecord(rec *dto.TagSyncRecord) *models.Tag {
	return &models.Tag{
		ID:        rec.ID,
		Name:      rec.Name,
		Color:     rec.Color,
		IsDefault: rec.IsDefault,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
		DeletedAt: rec.DeletedAt,
	}
}

func tagToSyncRecord(t *models.Tag) dto.TagSyncRecord {
	return dto.TagSyncRecord{
		ID:        t.ID,
		Name:      t.Name,
		Color:     t.Color,
		IsDefault: t.IsDefault,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
		DeletedAt: t.DeletedAt,
	}
}
