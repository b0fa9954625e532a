package models

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation wraps the field errors of a malformed task definition or task type.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidOccurrence is returned when status or reminders are evaluated
	// for a date the task's recurrence does not cover.
	ErrInvalidOccurrence = errors.New("invalid occurrence: recurrence does not cover date")

	// ErrDuplicateCategoryKey is returned when a task type's derived key already exists.
	ErrDuplicateCategoryKey = errors.New("duplicate category key")
)

// validationError joins field errors with ErrValidation so callers can match either.
func validationError(fieldErrs error) error {
	if fieldErrs == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, fieldErrs)
}
