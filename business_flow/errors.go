// Package businessflow contains the core business logic for task and tag
// synchronization workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Task-related errors
	ErrTaskNotFound = errors.New("task not found")

	// Tag-related errors
	ErrTagNotFound         = errors.New("tag not found")
	ErrTagNameExists       = errors.New("tag name already exists")
	ErrDefaultTagProtected = errors.New("default tags cannot be deleted")

	// Sync-related errors
	ErrRecordMalformed = errors.New("record is malformed")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsTaskNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}

func IsTagNotFound(err error) bool {
	return errors.Is(err, ErrTagNotFound)
}

func IsTagNameExists(err error) bool {
	return errors.Is(err, ErrTagNameExists)
}

func IsDefaultTagProtected(err error) bool {
	return errors.Is(err, ErrDefaultTagProtected)
}
