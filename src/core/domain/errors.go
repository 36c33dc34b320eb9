// Package domain contains domain entities, value objects, and domain-specific errors.
// This package should have no external dependencies except the standard library.
package domain

import (
	"errors"
	"fmt"
)

// Domain error types for consistent error handling across the application.

var (
	// ErrNotFound is returned when a referenced question or answer does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when no caller identity is available.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvariantViolation signals internal corruption: an index bucket that
	// must exist for a stored parent is missing. It is never patched over.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrDuplicateID is returned when a freshly generated id collides with an
	// existing row or index entry.
	ErrDuplicateID = errors.New("duplicate id")
)

// DomainError wraps a base error with additional context.
type DomainError struct {
	// Base is the underlying error type (e.g., ErrNotFound)
	Base error

	// Message provides human-readable context
	Message string

	// Field indicates which field caused the error (for validation errors)
	Field string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Base.Error(), e.Message, e.Field)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Base.Error(), e.Message)
	}
	return e.Base.Error()
}

// Unwrap returns the base error for errors.Is/As support.
func (e *DomainError) Unwrap() error {
	return e.Base
}

// NewNotFoundError creates a not found error for an entity kind and id.
func NewNotFoundError(kind, id string) *DomainError {
	return &DomainError{
		Base:    ErrNotFound,
		Message: fmt.Sprintf("%s %q", kind, id),
	}
}

// NewValidationError creates a validation error for a specific field.
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Base:    ErrInvalidInput,
		Message: message,
		Field:   field,
	}
}

// NewUnauthorizedError creates an unauthorized error with context.
func NewUnauthorizedError(message string) *DomainError {
	return &DomainError{
		Base:    ErrUnauthorized,
		Message: message,
	}
}

// NewMissingBucketError reports an index bucket missing for an existing parent.
func NewMissingBucketError(index IndexKind, ownerID string) *DomainError {
	return &DomainError{
		Base:    ErrInvariantViolation,
		Message: fmt.Sprintf("%s bucket missing for %q", index, ownerID),
	}
}

// NewDuplicateIDError reports a generated id that already exists.
func NewDuplicateIDError(kind, id string) *DomainError {
	return &DomainError{
		Base:    ErrDuplicateID,
		Message: fmt.Sprintf("%s %q", kind, id),
	}
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUnauthorized checks if an error is unauthorized.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsInvariantViolation checks if an error reports internal corruption.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsDuplicateID checks if an error reports an id collision.
func IsDuplicateID(err error) bool {
	return errors.Is(err, ErrDuplicateID)
}
