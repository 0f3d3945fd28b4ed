// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/prapp/prapp/pkg/persistence"
	"github.com/prapp/prapp/pkg/process"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrTitleRequired    = errors.New("process title is required")
	ErrInvalidStructure = process.ErrInvalidStructure
	ErrUnknownEditOp    = process.ErrUnknownEditOp
	ErrStepNotFound     = errors.New("step not found in process revision")
	ErrNotAStep         = errors.New("item is a section, not a step")

	// Business Logic Conflicts (409 Conflict).
	ErrInvalidTransition = errors.New("step is already done")
	ErrMissingStart      = errors.New("step has not been started")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrInvalidStructure) ||
		errors.Is(err, ErrUnknownEditOp) ||
		errors.Is(err, ErrStepNotFound) ||
		errors.Is(err, ErrNotAStep)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrMissingStart) ||
		errors.Is(err, persistence.ErrRevisionAlreadyExists)
}

// IsNotFoundError checks if an error indicates a missing resource (HTTP 404).
func IsNotFoundError(err error) bool {
	return persistence.IsProcessNotFound(err) ||
		persistence.IsRevisionNotFound(err) ||
		persistence.IsExecutionNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
