// Package persistence provides standardized error types for storage operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrProcessNotFound indicates no process group exists for the given identifier.
	ErrProcessNotFound = errors.New("process not found")

	// ErrRevisionNotFound indicates the process group exists but the requested revision does not.
	ErrRevisionNotFound = errors.New("process revision not found")

	// ErrRevisionAlreadyExists indicates an attempt to overwrite an immutable revision.
	ErrRevisionAlreadyExists = errors.New("process revision already exists")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrInvalidSortField indicates a list request used a sort field outside the allowlist.
	ErrInvalidSortField = errors.New("invalid sort field")
)

// ProcessError wraps process-related storage errors with additional context.
type ProcessError struct {
	Op       string // Operation being performed (e.g., "Latest", "SaveRevision")
	GroupID  string // Process group ID if applicable
	Revision string // Revision ID if applicable
	Err      error  // Underlying error
}

func (e *ProcessError) Error() string {
	target := e.GroupID
	if e.Revision != "" {
		target = fmt.Sprintf("%s@%s", e.GroupID, e.Revision)
	}

	return fmt.Sprintf("%s operation failed for process %s: %v", e.Op, target, e.Err)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

func (e *ProcessError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewProcessError creates a new process storage error with context.
func NewProcessError(op, groupID, revision string, err error) *ProcessError {
	return &ProcessError{
		Op:       op,
		GroupID:  groupID,
		Revision: revision,
		Err:      err,
	}
}

// ExecutionError wraps execution-related storage errors with additional context.
type ExecutionError struct {
	Op          string // Operation being performed
	ExecutionID string // Execution ID
	Err         error  // Underlying error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewExecutionError creates a new execution storage error with context.
func NewExecutionError(op, executionID string, err error) *ExecutionError {
	return &ExecutionError{
		Op:          op,
		ExecutionID: executionID,
		Err:         err,
	}
}

// IsProcessNotFound checks if an error indicates a process group was not found.
func IsProcessNotFound(err error) bool {
	return errors.Is(err, ErrProcessNotFound)
}

// IsRevisionNotFound checks if an error indicates a revision was not found.
func IsRevisionNotFound(err error) bool {
	return errors.Is(err, ErrRevisionNotFound)
}

// IsRevisionAlreadyExists checks if an error indicates a revision overwrite attempt.
func IsRevisionAlreadyExists(err error) bool {
	return errors.Is(err, ErrRevisionAlreadyExists)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsInvalidSortField checks if an error indicates a rejected sort field.
func IsInvalidSortField(err error) bool {
	return errors.Is(err, ErrInvalidSortField)
}
