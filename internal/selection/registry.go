package selection

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/svq/chalet-bookings/internal/calendar"
)

// Registry hands out per-session machines to the HTTP layer. Sessions
// idle out after the TTL so abandoned picks do not pile up.
type Registry struct {
	season calendar.Season
	avail  Availability
	ttl    time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	machine *Machine
	touched time.Time
}

func NewRegistry(season calendar.Season, avail Availability, ttl time.Duration) *Registry {
	return &Registry{
		season:   season,
		avail:    avail,
		ttl:      ttl,
		sessions: make(map[string]*session),
	}
}

// Acquire returns the machine for id, creating a fresh session when id
// is empty or unknown. The returned id identifies the session on
// subsequent calls.
func (r *Registry) Acquire(id string) (string, *Machine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()

	if id != "" {
		if s, ok := r.sessions[id]; ok {
			s.touched = time.Now()
			return id, s.machine
		}
	}

	id = uuid.NewString()
	s := &session{
		machine: NewMachine(r.season, r.avail),
		touched: time.Now(),
	}
	r.sessions[id] = s
	return id, s.machine
}

// Release drops a session once its selection was submitted or abandoned.
func (r *Registry) Release(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// sweep drops sessions idle past the TTL. Caller holds the lock.
func (r *Registry) sweep() {
	if r.ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-r.ttl)
	for id, s := range r.sessions {
		if s.touched.Before(cutoff) {
			delete(r.sessions, id)
		}
	}
}
