package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("booking not found")

	// ErrInvalidTransition covers status moves the lifecycle does not
	// offer, e.g. anything out of rejected.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError marks recoverable input problems: the guest corrects
// the form and resubmits.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ConflictError is returned when a requested range collides with an
// approved booking, either at selection time or at approval time.
type ConflictError struct {
	BookingID uuid.UUID
	StartDate string
	EndDate   string
}

func (e *ConflictError) Error() string {
	if e.BookingID == uuid.Nil {
		return "dates overlap with an existing approved booking"
	}
	return fmt.Sprintf("dates overlap with approved booking %s (%s..%s)",
		e.BookingID, e.StartDate, e.EndDate)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
