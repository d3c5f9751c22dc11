package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/svq/chalet-bookings/internal/availability"
	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/domain"
	"github.com/svq/chalet-bookings/internal/http/response"
	"github.com/svq/chalet-bookings/internal/selection"
	"github.com/svq/chalet-bookings/internal/service"
	"github.com/svq/chalet-bookings/internal/store"
)

// SelectionSessionHeader carries the per-client selection session id.
// The first selection call leaves it empty; the response returns the
// assigned id and the client echoes it back on subsequent calls.
const SelectionSessionHeader = "X-Selection-Session"

type GuestHandler struct {
	store    *store.Store
	engine   *availability.Engine
	sessions *selection.Registry
	svc      service.BookingService
	season   calendar.Season
}

func NewGuestHandler(
	st *store.Store,
	engine *availability.Engine,
	sessions *selection.Registry,
	svc service.BookingService,
	season calendar.Season,
) *GuestHandler {
	return &GuestHandler{
		store:    st,
		engine:   engine,
		sessions: sessions,
		svc:      svc,
		season:   season,
	}
}

// CalendarDay is one cell of the month grid.
type CalendarDay struct {
	Date      string `json:"date"`
	InSeason  bool   `json:"in_season"`
	Available bool   `json:"available"`
	Pending   bool   `json:"pending"`
	Booked    bool   `json:"booked"`
	GuestName string `json:"guest_name,omitempty"`
}

type calendarResponse struct {
	Month  string        `json:"month"`
	Season struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"season"`
	Days []CalendarDay `json:"days"`
}

// Calendar renders the month grid the booking page draws: per-day
// availability, season membership and who holds each booked day.
func (h *GuestHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	days, err := calendar.MonthDays(month)
	if err != nil {
		response.BadRequest(w, "month must be YYYY-MM")
		return
	}

	occupied := h.store.Occupied()
	pending := h.store.PendingDates()

	out := calendarResponse{Month: month, Days: make([]CalendarDay, 0, len(days))}
	out.Season.Start = h.season.Start
	out.Season.End = h.season.End
	for _, day := range days {
		cell := CalendarDay{
			Date:     day,
			InSeason: h.season.Contains(day),
		}
		if b, taken := occupied[day]; taken {
			cell.Booked = true
			cell.GuestName = b.GuestName
		}
		_, cell.Pending = pending[day]
		cell.Available = cell.InSeason && !cell.Booked
		out.Days = append(out.Days, cell)
	}

	response.JSON(w, http.StatusOK, out)
}

type availabilityResponse struct {
	Start     string       `json:"start"`
	End       string       `json:"end"`
	Available bool         `json:"available"`
	Blocking  *domain.Stay `json:"blocking,omitempty"`
}

// Availability answers whether an inclusive range can still be
// requested, and names the stay blocking it when it cannot.
func (h *GuestHandler) Availability(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if !calendar.IsValid(start) || !calendar.IsValid(end) {
		response.BadRequest(w, "start and end must be YYYY-MM-DD")
		return
	}
	if start > end {
		response.BadRequest(w, "start must not be after end")
		return
	}

	out := availabilityResponse{
		Start:     start,
		End:       end,
		Available: h.engine.RangeAvailable(start, end),
	}
	if !out.Available {
		if b, found := h.engine.Blocking(start, end); found {
			stay := b.Stay()
			out.Blocking = &stay
		}
	}
	response.JSON(w, http.StatusOK, out)
}

// ListStays returns upcoming approved stays without contact details.
func (h *GuestHandler) ListStays(w http.ResponseWriter, r *http.Request) {
	upcoming := h.store.Upcoming()
	stays := make([]domain.Stay, 0, len(upcoming))
	for i := range upcoming {
		stays = append(stays, upcoming[i].Stay())
	}
	response.JSON(w, http.StatusOK, map[string]any{"stays": stays})
}

// CreateBooking submits a stay request. The booking starts out pending
// and never blocks other requests until the owner approves it.
func (h *GuestHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req domain.StayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	booking, err := h.svc.Submit(r.Context(), &req)
	if err != nil {
		response.DomainError(w, err)
		return
	}

	// a submitted selection is spent
	if id := r.Header.Get(SelectionSessionHeader); id != "" {
		h.sessions.Release(id)
	}

	response.JSON(w, http.StatusCreated, booking)
}

type selectionRequest struct {
	Date string `json:"date"`
}

type selectionResponse struct {
	SessionID string   `json:"session_id"`
	Outcome   string   `json:"outcome,omitempty"`
	State     string   `json:"state"`
	Start     string   `json:"start,omitempty"`
	End       string   `json:"end,omitempty"`
	Preview   []string `json:"preview,omitempty"`
}

func (h *GuestHandler) selectionState(id string, m *selection.Machine, outcome string) selectionResponse {
	start, end := m.Range()
	return selectionResponse{
		SessionID: id,
		Outcome:   outcome,
		State:     m.State().String(),
		Start:     start,
		End:       end,
		Preview:   m.Preview(),
	}
}

func decodeSelectionDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req selectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return "", false
	}
	if !calendar.IsValid(req.Date) {
		response.BadRequest(w, "date must be YYYY-MM-DD")
		return "", false
	}
	return req.Date, true
}

// SelectionClick advances the two-click selection for this session.
func (h *GuestHandler) SelectionClick(w http.ResponseWriter, r *http.Request) {
	date, ok := decodeSelectionDate(w, r)
	if !ok {
		return
	}

	id, machine := h.sessions.Acquire(r.Header.Get(SelectionSessionHeader))
	outcome := machine.Click(date)

	w.Header().Set(SelectionSessionHeader, id)
	response.JSON(w, http.StatusOK, h.selectionState(id, machine, outcome.String()))
}

// SelectionHover previews a candidate end date while the end is open.
func (h *GuestHandler) SelectionHover(w http.ResponseWriter, r *http.Request) {
	date, ok := decodeSelectionDate(w, r)
	if !ok {
		return
	}

	id, machine := h.sessions.Acquire(r.Header.Get(SelectionSessionHeader))
	machine.Hover(date)

	w.Header().Set(SelectionSessionHeader, id)
	response.JSON(w, http.StatusOK, h.selectionState(id, machine, ""))
}

// SelectionCancel abandons the selection and drops the session.
func (h *GuestHandler) SelectionCancel(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(SelectionSessionHeader)
	if id != "" {
		_, machine := h.sessions.Acquire(id)
		machine.Cancel()
		h.sessions.Release(id)
	}
	response.JSON(w, http.StatusOK, selectionResponse{State: selection.Idle.String()})
}
