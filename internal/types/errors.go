package types

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError indicates a referenced record does not exist for the owner.
type NotFoundError struct {
	Entity string
	ID     uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ValidationError indicates invalid input. Nothing is persisted when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ConflictError indicates a write would break the single pending follow-up per job rule.
type ConflictError struct {
	Entity  string
	ID      uuid.UUID
	Message string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Entity, e.ID, e.Message)
}

// ExternalError indicates the storage or lookup collaborator failed or timed out.
type ExternalError struct {
	Op    string
	Cause error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("external failure during %s: %v", e.Op, e.Cause)
}

func (e *ExternalError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsConflict reports whether err wraps a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsExternal reports whether err wraps an ExternalError.
func IsExternal(err error) bool {
	var target *ExternalError
	return errors.As(err, &target)
}
