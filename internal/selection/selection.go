// Package selection drives the two-click "pick start, pick end" date
// interaction for one client session.
package selection

import (
	"sync"

	"github.com/svq/chalet-bookings/internal/calendar"
)

type State int

const (
	// Idle: no start date picked yet.
	Idle State = iota
	// StartPicked: start chosen, waiting for the end click.
	StartPicked
	// RangeConfirmed: both ends chosen, submission form open.
	RangeConfirmed
)

func (s State) String() string {
	switch s {
	case StartPicked:
		return "start_picked"
	case RangeConfirmed:
		return "range_confirmed"
	default:
		return "idle"
	}
}

// Outcome tells the caller what a click did, so the UI can open the
// submission form or surface a conflict notice.
type Outcome int

const (
	// OutcomeIgnored: out-of-season or unavailable click, nothing changed.
	OutcomeIgnored Outcome = iota
	// OutcomeStartPicked: a new start date was chosen.
	OutcomeStartPicked
	// OutcomeConfirmed: the range is free, open the submission form.
	OutcomeConfirmed
	// OutcomeConflict: the range hit an approved booking; selection
	// restarted at the clicked date.
	OutcomeConflict
)

func (o Outcome) String() string {
	switch o {
	case OutcomeStartPicked:
		return "start_picked"
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeConflict:
		return "conflict"
	default:
		return "ignored"
	}
}

// Availability is the slice of the availability engine the machine
// consults. Checks read the live booking snapshot at click time.
type Availability interface {
	DateAvailable(key string) bool
	RangeAvailable(start, end string) bool
}

// Machine cycles between Idle, StartPicked and RangeConfirmed for the
// lifetime of a session; it has no terminal state.
type Machine struct {
	season calendar.Season
	avail  Availability

	mu      sync.Mutex
	state   State
	start   string
	end     string
	hovered string
}

func NewMachine(season calendar.Season, avail Availability) *Machine {
	return &Machine{season: season, avail: avail}
}

// Click processes a click on day d.
//
// From Idle or RangeConfirmed an available in-season d becomes the new
// start. From StartPicked the clicked day closes the range (order
// normalized); if any day of the range is occupied the old start is
// discarded and selection restarts at d. That restart is the deliberate
// recovery policy, not a silent failure.
func (m *Machine) Click(d string) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.season.Contains(d) {
		return OutcomeIgnored
	}

	if m.state != StartPicked {
		if !m.avail.DateAvailable(d) {
			return OutcomeIgnored
		}
		m.state = StartPicked
		m.start, m.end, m.hovered = d, "", ""
		return OutcomeStartPicked
	}

	lo, hi := m.start, d
	if d < m.start {
		lo, hi = d, m.start
	}
	if m.avail.RangeAvailable(lo, hi) {
		m.state = RangeConfirmed
		m.start, m.end, m.hovered = lo, hi, ""
		return OutcomeConfirmed
	}

	m.start, m.end, m.hovered = d, "", ""
	return OutcomeConflict
}

// Hover previews d as a candidate end date. Only meaningful while the
// end is still open; it never changes committed state.
func (m *Machine) Hover(d string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StartPicked {
		m.hovered = d
	}
}

func (m *Machine) ClearHover() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hovered = ""
}

// Cancel abandons the submission form and resets to Idle.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = Idle
	m.start, m.end, m.hovered = "", "", ""
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Range returns the committed start and end day keys; either may be
// empty depending on the state.
func (m *Machine) Range() (start, end string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.start, m.end
}

// Preview returns the day keys the UI should highlight: the committed
// range, or start through the hovered day, order normalized.
func (m *Machine) Preview() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.start == "" {
		return nil
	}
	end := m.end
	if end == "" {
		end = m.hovered
	}
	if end == "" {
		end = m.start
	}
	lo, hi := m.start, end
	if hi < lo {
		lo, hi = hi, lo
	}
	return calendar.Days(lo, hi)
}
