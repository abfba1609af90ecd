// Package service provides application-level services for managing tasks
// and their ownership semantics.
package service

import (
	"errors"
	"fmt"

	"github.com/taskward/taskward/internal/domain"
	"github.com/taskward/taskward/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Store-level failures never escape as panics or raw driver errors
var (
	// ErrTaskNotFound indicates the task does not exist OR is not owned by
	// the acting actor. The two cases are deliberately indistinguishable so
	// that ownership checks do not leak existence.
	ErrTaskNotFound = errors.New("task not found")
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "update_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// newTaskServiceError maps an operation failure to the caller-facing error.
// Known sentinel and validation errors pass through untouched; everything
// else (driver faults, constraint violations) is wrapped with context.
func newTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}
	if IsValidationError(err) {
		return err
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// IsValidationError reports whether err represents caller-supplied data
// violating a field constraint or the completion-transition rule. These are
// surfaced synchronously, before any store mutation happens.
func IsValidationError(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrTaskTitleEmpty) ||
		errors.Is(err, domain.ErrTaskTitleTooLong) ||
		errors.Is(err, domain.ErrTaskDueDateNotFuture) ||
		errors.Is(err, domain.ErrCompletionRequiresProgress) ||
		errors.Is(err, domain.ErrInvalidPriority) ||
		errors.Is(err, domain.ErrInvalidStatus) ||
		errors.Is(err, domain.ErrInvalidActorKind) ||
		errors.Is(err, domain.ErrActorIDInvalid)
}
