package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/utils"
)

type BookingStatus string

const (
	BookingPending  BookingStatus = "pending"
	BookingApproved BookingStatus = "approved"
	BookingRejected BookingStatus = "rejected"
)

func ParseBookingStatus(s string) (BookingStatus, bool) {
	switch BookingStatus(s) {
	case BookingPending, BookingApproved, BookingRejected:
		return BookingStatus(s), true
	default:
		return "", false
	}
}

// Booking is the sole persisted entity: one stay request for the
// property. Guest fields and dates are immutable after creation; only
// Status moves, or the row is deleted outright.
type Booking struct {
	ID         uuid.UUID     `json:"id"`
	GuestName  string        `json:"guest_name"`
	GuestEmail string        `json:"guest_email"`
	GuestCount int           `json:"guest_count"`
	Notes      string        `json:"notes,omitempty"`
	StartDate  string        `json:"start_date"`
	EndDate    string        `json:"end_date"`
	Status     BookingStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Input policy, not hard invariants.
const (
	MinGuestCount = 1
	MaxGuestCount = 20
)

// StayRequest is the guest-submitted payload for a new booking. Dates
// come from the confirmed calendar selection.
type StayRequest struct {
	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestCount int    `json:"guest_count"`
	Notes      string `json:"notes"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

// Normalize trims free-text fields and clamps the guest count into the
// input policy bounds. A missing end date collapses to a one-day stay.
func (r *StayRequest) Normalize() {
	r.GuestName = utils.NormalizeString(r.GuestName)
	r.GuestEmail = utils.NormalizeEmail(r.GuestEmail)
	r.Notes = utils.NormalizeString(r.Notes)
	if r.GuestCount < MinGuestCount {
		r.GuestCount = MinGuestCount
	}
	if r.GuestCount > MaxGuestCount {
		r.GuestCount = MaxGuestCount
	}
	if r.EndDate == "" {
		r.EndDate = r.StartDate
	}
}

// Validate checks the post-trim request. Callers must Normalize first.
func (r *StayRequest) Validate() error {
	if r.GuestName == "" {
		return &ValidationError{Field: "guest_name", Reason: "required"}
	}
	if r.GuestEmail == "" {
		return &ValidationError{Field: "guest_email", Reason: "required"}
	}
	if !utils.IsValidEmail(r.GuestEmail) {
		return &ValidationError{Field: "guest_email", Reason: "not a valid email address"}
	}
	if !calendar.IsValid(r.StartDate) {
		return &ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
	}
	if !calendar.IsValid(r.EndDate) {
		return &ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
	}
	if r.StartDate > r.EndDate {
		return &ValidationError{Field: "start_date", Reason: "must not be after end_date"}
	}
	return nil
}

// Stay is the public projection of an approved booking: enough for the
// shared calendar, without the guest's contact details.
type Stay struct {
	ID         uuid.UUID `json:"id"`
	GuestName  string    `json:"guest_name"`
	GuestCount int       `json:"guest_count"`
	StartDate  string    `json:"start_date"`
	EndDate    string    `json:"end_date"`
}

func (b *Booking) Stay() Stay {
	return Stay{
		ID:         b.ID,
		GuestName:  b.GuestName,
		GuestCount: b.GuestCount,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
	}
}
