package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")

	// ErrHoldNotReady is returned when accept/decline is attempted on a hold
	// that is not in the ready state.
	ErrHoldNotReady = errors.New("hold is not ready")
	// ErrHoldNotCancellable is returned when cancel is attempted on a hold
	// that is already terminal.
	ErrHoldNotCancellable = errors.New("hold is not cancellable")
	// ErrHoldExpired is returned when a ready hold is accepted past its
	// pickup window. The hold has been flipped to expired as a side effect.
	ErrHoldExpired = errors.New("hold pickup window has expired")
	// ErrAlreadyReturned is returned when a loan already has a return date.
	ErrAlreadyReturned = errors.New("loan already returned")
	// ErrCopyNotFound is returned when the referenced copy does not exist.
	ErrCopyNotFound = errors.New("copy not found")
	// ErrPolicyTableMissing signals that the fine_policies relation does not
	// exist in this deployment; policy resolution degrades to role defaults.
	ErrPolicyTableMissing = errors.New("fine policy table missing")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s — %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// LoanLimitError is returned when a patron is at or over their active-loan
// limit. Both direct checkout and hold acceptance return it with the same
// limit table.
type LoanLimitError struct {
	Count int
	Limit int
}

func (e *LoanLimitError) Error() string {
	return fmt.Sprintf("loan limit exceeded: %d active of %d allowed", e.Count, e.Limit)
}

func (e *LoanLimitError) Unwrap() error { return ErrConflict }

// CopyUnavailableError is returned when the target copy exists but is not
// in the available state. Status carries what the copy was at check time.
type CopyUnavailableError struct {
	Status CopyStatus
}

func (e *CopyUnavailableError) Error() string {
	return fmt.Sprintf("copy not available: status %s", e.Status)
}

func (e *CopyUnavailableError) Unwrap() error { return ErrConflict }
