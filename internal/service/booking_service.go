// Package service is the booking lifecycle controller: it moves a
// booking through pending -> approved/rejected and owns the
// no-double-booking invariant at approval time.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/svq/chalet-bookings/internal/availability"
	"github.com/svq/chalet-bookings/internal/domain"
	"github.com/svq/chalet-bookings/internal/platform/mailer"
	"github.com/svq/chalet-bookings/internal/repo/postgres"
	"github.com/svq/chalet-bookings/internal/store"
	"github.com/svq/chalet-bookings/pkg/events"
	"github.com/svq/chalet-bookings/pkg/logger"
)

type BookingService interface {
	Submit(ctx context.Context, req *domain.StayRequest) (*domain.Booking, error)
	Approve(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Reject(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

type bookingService struct {
	repo   postgres.BookingRepository
	store  *store.Store
	mailer mailer.Service
	bus    events.Publisher
}

func NewBookingService(
	repo postgres.BookingRepository,
	st *store.Store,
	mail mailer.Service,
	bus events.Publisher,
) BookingService {
	return &bookingService{
		repo:   repo,
		store:  st,
		mailer: mail,
		bus:    bus,
	}
}

// Submit validates the request and persists it as a pending booking.
// The owner notification is best-effort; its failure never fails the
// submission.
func (s *bookingService) Submit(ctx context.Context, req *domain.StayRequest) (*domain.Booking, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	booking, err := s.repo.Insert(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if err := s.mailer.SendStayRequest(booking); err != nil {
		logger.WarnContext(ctx, "Stay request notification failed",
			"error", err, "booking_id", booking.ID)
	}

	s.announce(ctx, booking.ID, events.ActionCreated)
	return booking, nil
}

// Approve transitions a pending booking to approved unless its range
// overlaps another approved booking.
//
// The overlap check runs twice: once against the in-memory snapshot for
// a precise ConflictError, then again server-side inside the
// repository's conditional update. The second check is authoritative;
// it closes the window in which another client approves a conflicting
// booking between our read and our write.
func (s *bookingService) Approve(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	booking, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	switch booking.Status {
	case domain.BookingPending:
	default:
		// approved -> approved is not offered; rejected is terminal
		return nil, domain.ErrInvalidTransition
	}

	for _, other := range s.store.ByStatus(domain.BookingApproved) {
		if other.ID == id {
			continue
		}
		if availability.Overlaps(booking.StartDate, booking.EndDate, other.StartDate, other.EndDate) {
			return nil, &domain.ConflictError{
				BookingID: other.ID,
				StartDate: other.StartDate,
				EndDate:   other.EndDate,
			}
		}
	}

	approved, err := s.repo.ApproveIfAvailable(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to approve booking: %w", err)
	}
	if !approved {
		// lost a race against a concurrent approval
		return nil, &domain.ConflictError{}
	}

	s.announce(ctx, id, events.ActionApproved)

	booking.Status = domain.BookingApproved
	return &booking, nil
}

// Reject is the single transition used both to decline a pending
// request and to revoke a previous approval; the two call sites differ
// only in user-facing wording. Rejected is terminal.
func (s *bookingService) Reject(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	booking, ok := s.store.Get(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	if booking.Status == domain.BookingRejected {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, id, domain.BookingRejected); err != nil {
		return nil, fmt.Errorf("failed to reject booking: %w", err)
	}

	s.announce(ctx, id, events.ActionRejected)

	booking.Status = domain.BookingRejected
	return &booking, nil
}

// Remove deletes the booking outright, regardless of status.
func (s *bookingService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if err == domain.ErrNotFound {
			return err
		}
		return fmt.Errorf("failed to delete booking: %w", err)
	}

	s.announce(ctx, id, events.ActionDeleted)
	return nil
}

// announce publishes the change and refreshes the local snapshot.
// Both are fire-and-forget: the caller's mutation already succeeded,
// and other clients re-list on their own when the event lands.
func (s *bookingService) announce(ctx context.Context, id uuid.UUID, action events.ChangeAction) {
	event := events.BookingChangedEvent{
		BookingID:  id.String(),
		Action:     action,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.bus.Publish(ctx, events.BookingChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish booking change",
			"error", err, "booking_id", id, "action", action)
	}

	if err := s.store.Refresh(ctx); err != nil {
		logger.ErrorContext(ctx, "Post-mutation refresh failed",
			"error", err, "booking_id", id)
	}
}
