package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidActorKind is returned when an actor kind is not a known value.
	ErrInvalidActorKind = errors.New("invalid actor kind")

	// ErrInvalidPriority is returned when a task priority is not a valid value.
	ErrInvalidPriority = errors.New("invalid task priority")

	// ErrInvalidStatus is returned when a task status is not a valid value.
	ErrInvalidStatus = errors.New("invalid task status")
)
