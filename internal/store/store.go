// Package store keeps the authoritative in-memory set of bookings.
//
// The set is refreshed wholesale from the persistence collaborator:
// every refresh replaces the snapshot, never patches it. Refreshes race
// freely (post-mutation refresh vs. change-feed events) and the last
// completed one wins; because the operation is a full replace there is
// no merge logic. Derived views are recomputed from the current
// snapshot on demand and carry no state of their own.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/domain"
)

// Lister is the slice of the persistence collaborator the store needs.
type Lister interface {
	List(ctx context.Context) ([]domain.Booking, error)
}

type Counts struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
	Rejected int `json:"rejected"`
}

type Store struct {
	lister Lister

	mu       sync.RWMutex
	bookings []domain.Booking
}

func New(lister Lister) *Store {
	return &Store{lister: lister}
}

// Refresh fetches the full booking set and swaps it in. It is safe to
// call from any goroutine; concurrent refreshes are last-write-wins.
func (s *Store) Refresh(ctx context.Context) error {
	bookings, err := s.lister.List(ctx)
	if err != nil {
		return fmt.Errorf("refresh bookings: %w", err)
	}
	s.Replace(bookings)
	return nil
}

// Replace swaps the entire snapshot.
func (s *Store) Replace(bookings []domain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = bookings
}

// All returns a copy of the current set in collaborator order.
func (s *Store) All() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Booking, len(s.bookings))
	copy(out, s.bookings)
	return out
}

// Get looks a booking up by id in the current snapshot.
func (s *Store) Get(id uuid.UUID) (domain.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// Occupied maps each day key covered by an approved booking to that
// booking. At most one approved booking covers a given date; the
// lifecycle controller enforces that at approval time.
func (s *Store) Occupied() map[string]domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	occupied := make(map[string]domain.Booking)
	for _, b := range s.bookings {
		if b.Status != domain.BookingApproved {
			continue
		}
		for _, day := range calendar.Days(b.StartDate, b.EndDate) {
			occupied[day] = b
		}
	}
	return occupied
}

// PendingDates is the set of day keys covered by any pending booking.
// Pending requests may overlap each other and the occupied index; they
// are requests, not commitments.
func (s *Store) PendingDates() map[string]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := make(map[string]struct{})
	for _, b := range s.bookings {
		if b.Status != domain.BookingPending {
			continue
		}
		for _, day := range calendar.Days(b.StartDate, b.EndDate) {
			pending[day] = struct{}{}
		}
	}
	return pending
}

// Upcoming returns approved bookings sorted by ascending start date.
func (s *Store) Upcoming() []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var upcoming []domain.Booking
	for _, b := range s.bookings {
		if b.Status == domain.BookingApproved {
			upcoming = append(upcoming, b)
		}
	}
	sort.Slice(upcoming, func(i, j int) bool {
		return upcoming[i].StartDate < upcoming[j].StartDate
	})
	return upcoming
}

// ByStatus filters the snapshot without reordering it.
func (s *Store) ByStatus(status domain.BookingStatus) []domain.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Booking
	for _, b := range s.bookings {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

// Counts tallies bookings per status for the owner dashboard.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Counts
	for _, b := range s.bookings {
		switch b.Status {
		case domain.BookingApproved:
			c.Approved++
		case domain.BookingPending:
			c.Pending++
		case domain.BookingRejected:
			c.Rejected++
		}
	}
	return c
}
