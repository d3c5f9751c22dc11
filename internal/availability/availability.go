// Package availability answers whether dates can still be requested.
// Only approved bookings block a date; pending requests never do.
package availability

import (
	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/domain"
)

// Snapshot is the view of the booking store the engine reads.
type Snapshot interface {
	Occupied() map[string]domain.Booking
}

type Engine struct {
	store Snapshot
}

func NewEngine(store Snapshot) *Engine {
	return &Engine{store: store}
}

// DateAvailable reports whether no approved booking covers the day.
func (e *Engine) DateAvailable(key string) bool {
	_, taken := e.store.Occupied()[key]
	return !taken
}

// RangeAvailable reports whether every day in the inclusive range is
// available, short-circuiting on the first occupied day. A reversed
// range enumerates no days and is vacuously available; callers must
// pass start <= end.
func (e *Engine) RangeAvailable(start, end string) bool {
	occupied := e.store.Occupied()
	for _, day := range calendar.Days(start, end) {
		if _, taken := occupied[day]; taken {
			return false
		}
	}
	return true
}

// Blocking returns the approved booking occupying the first unavailable
// day of the range, for conflict reporting.
func (e *Engine) Blocking(start, end string) (domain.Booking, bool) {
	occupied := e.store.Occupied()
	for _, day := range calendar.Days(start, end) {
		if b, taken := occupied[day]; taken {
			return b, true
		}
	}
	return domain.Booking{}, false
}

// Overlaps reports whether two inclusive date ranges share at least one
// calendar day. Implemented as set intersection over the enumerated
// days; ranges here are small and bounded by the season window.
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	days := make(map[string]struct{})
	for _, d := range calendar.Days(aStart, aEnd) {
		days[d] = struct{}{}
	}
	for _, d := range calendar.Days(bStart, bEnd) {
		if _, ok := days[d]; ok {
			return true
		}
	}
	return false
}
