package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/svq/chalet-bookings/internal/availability"
	"github.com/svq/chalet-bookings/internal/calendar"
	"github.com/svq/chalet-bookings/internal/domain"
	"github.com/svq/chalet-bookings/internal/http/handlers"
	"github.com/svq/chalet-bookings/internal/http/middleware"
	"github.com/svq/chalet-bookings/internal/selection"
	"github.com/svq/chalet-bookings/internal/store"
	"github.com/svq/chalet-bookings/pkg/auth"
	"github.com/svq/chalet-bookings/pkg/config"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Submit(ctx context.Context, req *domain.StayRequest) (*domain.Booking, error) {
	args := m.Called(ctx, req)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockService) Approve(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockService) Reject(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*domain.Booking)
	return b, args.Error(1)
}

func (m *mockService) Remove(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

var season = calendar.Season{Start: "2025-11-15", End: "2026-04-15"}

type env struct {
	store *store.Store
	svc   *mockService
	guest *handlers.GuestHandler
	owner *handlers.OwnerHandler
}

func newEnv(bookings ...domain.Booking) *env {
	st := store.New(nil)
	st.Replace(bookings)
	engine := availability.NewEngine(st)
	svc := new(mockService)
	return &env{
		store: st,
		svc:   svc,
		guest: handlers.NewGuestHandler(st, engine, selection.NewRegistry(season, engine, time.Minute), svc, season),
		owner: handlers.NewOwnerHandler(st, svc, config.OwnerConfig{
			Password:   "powder",
			JWTSecret:  "test-secret",
			SessionTTL: time.Hour,
		}),
	}
}

func booking(status domain.BookingStatus, start, end string) domain.Booking {
	return domain.Booking{
		ID:         uuid.New(),
		GuestName:  "Jane Smith",
		GuestEmail: "jane@example.com",
		GuestCount: 2,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestCalendar(t *testing.T) {
	approved := booking(domain.BookingApproved, "2025-12-18", "2025-12-20")
	pending := booking(domain.BookingPending, "2025-12-19", "2025-12-21")
	e := newEnv(approved, pending)

	req := httptest.NewRequest(http.MethodGet, "/v1/calendar?month=2025-12", nil)
	rec := httptest.NewRecorder()
	e.guest.Calendar(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		Month string                 `json:"month"`
		Days  []handlers.CalendarDay `json:"days"`
	}
	decodeBody(t, rec, &out)
	assert.Equal(t, "2025-12", out.Month)
	require.Len(t, out.Days, 31)

	byDate := make(map[string]handlers.CalendarDay)
	for _, d := range out.Days {
		byDate[d.Date] = d
	}

	assert.True(t, byDate["2025-12-18"].Booked)
	assert.Equal(t, "Jane Smith", byDate["2025-12-18"].GuestName)
	assert.False(t, byDate["2025-12-18"].Available)

	// pending marks the day but never blocks it
	assert.True(t, byDate["2025-12-21"].Pending)
	assert.True(t, byDate["2025-12-21"].Available)

	free := byDate["2025-12-01"]
	assert.True(t, free.InSeason)
	assert.True(t, free.Available)
	assert.False(t, free.Booked)
}

func TestCalendarOutOfSeason(t *testing.T) {
	e := newEnv()

	req := httptest.NewRequest(http.MethodGet, "/v1/calendar?month=2026-05", nil)
	rec := httptest.NewRecorder()
	e.guest.Calendar(rec, req)

	var out struct {
		Days []handlers.CalendarDay `json:"days"`
	}
	decodeBody(t, rec, &out)
	for _, d := range out.Days {
		assert.False(t, d.InSeason, d.Date)
		assert.False(t, d.Available, d.Date)
	}
}

func TestCalendarRejectsBadMonth(t *testing.T) {
	e := newEnv()
	rec := httptest.NewRecorder()
	e.guest.Calendar(rec, httptest.NewRequest(http.MethodGet, "/v1/calendar?month=december", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailability(t *testing.T) {
	blocker := booking(domain.BookingApproved, "2025-12-24", "2025-12-26")
	e := newEnv(blocker)

	t.Run("free range", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.guest.Availability(rec, httptest.NewRequest(http.MethodGet,
			"/v1/availability?start=2025-12-18&end=2025-12-20", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Available bool `json:"available"`
		}
		decodeBody(t, rec, &out)
		assert.True(t, out.Available)
	})

	t.Run("blocked range names the blocking stay", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.guest.Availability(rec, httptest.NewRequest(http.MethodGet,
			"/v1/availability?start=2025-12-23&end=2025-12-25", nil))

		var out struct {
			Available bool         `json:"available"`
			Blocking  *domain.Stay `json:"blocking"`
		}
		decodeBody(t, rec, &out)
		assert.False(t, out.Available)
		require.NotNil(t, out.Blocking)
		assert.Equal(t, blocker.ID, out.Blocking.ID)
	})

	t.Run("reversed range is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.guest.Availability(rec, httptest.NewRequest(http.MethodGet,
			"/v1/availability?start=2025-12-20&end=2025-12-18", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListStaysHidesContactDetails(t *testing.T) {
	e := newEnv(
		booking(domain.BookingApproved, "2026-01-03", "2026-01-10"),
		booking(domain.BookingApproved, "2025-12-18", "2025-12-20"),
		booking(domain.BookingPending, "2025-12-01", "2025-12-02"),
	)

	rec := httptest.NewRecorder()
	e.guest.ListStays(rec, httptest.NewRequest(http.MethodGet, "/v1/stays", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "jane@example.com")

	var out struct {
		Stays []domain.Stay `json:"stays"`
	}
	decodeBody(t, rec, &out)
	require.Len(t, out.Stays, 2)
	assert.Equal(t, "2025-12-18", out.Stays[0].StartDate)
	assert.Equal(t, "2026-01-03", out.Stays[1].StartDate)
}

func TestCreateBooking(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		e := newEnv()
		saved := booking(domain.BookingPending, "2025-12-18", "2025-12-20")
		e.svc.On("Submit", mock.Anything, mock.Anything).Return(&saved, nil)

		body := bytes.NewBufferString(`{"guest_name":"Jane Smith","guest_email":"jane@example.com","guest_count":2,"start_date":"2025-12-18","end_date":"2025-12-20"}`)
		rec := httptest.NewRecorder()
		e.guest.CreateBooking(rec, httptest.NewRequest(http.MethodPost, "/v1/bookings", body))

		require.Equal(t, http.StatusCreated, rec.Code)
		var out domain.Booking
		decodeBody(t, rec, &out)
		assert.Equal(t, saved.ID, out.ID)
		assert.Equal(t, domain.BookingPending, out.Status)
	})

	t.Run("validation error maps to 400", func(t *testing.T) {
		e := newEnv()
		e.svc.On("Submit", mock.Anything, mock.Anything).
			Return(nil, &domain.ValidationError{Field: "guest_name", Reason: "required"})

		body := bytes.NewBufferString(`{"guest_email":"jane@example.com"}`)
		rec := httptest.NewRecorder()
		e.guest.CreateBooking(rec, httptest.NewRequest(http.MethodPost, "/v1/bookings", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
	})

	t.Run("malformed json", func(t *testing.T) {
		e := newEnv()
		rec := httptest.NewRecorder()
		e.guest.CreateBooking(rec, httptest.NewRequest(http.MethodPost, "/v1/bookings",
			bytes.NewBufferString("{")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		e.svc.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	})
}

func selectionCall(t *testing.T, e *env, handler http.HandlerFunc, sessionID, date string) (string, map[string]any) {
	t.Helper()
	body := bytes.NewBufferString(`{"date":"` + date + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/selection/click", body)
	if sessionID != "" {
		req.Header.Set(handlers.SelectionSessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var out map[string]any
	decodeBody(t, rec, &out)
	return rec.Header().Get(handlers.SelectionSessionHeader), out
}

func TestSelectionFlow(t *testing.T) {
	e := newEnv(booking(domain.BookingApproved, "2025-12-24", "2025-12-26"))

	// clicks in either order confirm the normalized range
	id, out := selectionCall(t, e, e.guest.SelectionClick, "", "2025-12-20")
	require.NotEmpty(t, id)
	assert.Equal(t, "start_picked", out["outcome"])

	sameID, out := selectionCall(t, e, e.guest.SelectionClick, id, "2025-12-18")
	assert.Equal(t, id, sameID)
	assert.Equal(t, "confirmed", out["outcome"])
	assert.Equal(t, "2025-12-18", out["start"])
	assert.Equal(t, "2025-12-20", out["end"])

	// a range crossing the approved stay restarts at the clicked date
	id2, _ := selectionCall(t, e, e.guest.SelectionClick, "", "2025-12-23")
	_, out = selectionCall(t, e, e.guest.SelectionClick, id2, "2025-12-25")
	assert.Equal(t, "conflict", out["outcome"])
	assert.Equal(t, "start_picked", out["state"])
	assert.Equal(t, "2025-12-25", out["start"])
}

func TestSelectionHoverPreview(t *testing.T) {
	e := newEnv()

	id, _ := selectionCall(t, e, e.guest.SelectionClick, "", "2025-12-18")
	_, out := selectionCall(t, e, e.guest.SelectionHover, id, "2025-12-20")

	preview, ok := out["preview"].([]any)
	require.True(t, ok)
	assert.Len(t, preview, 3)
}

func TestOwnerLogin(t *testing.T) {
	e := newEnv()

	t.Run("right password mints a parseable token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.owner.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/owner/login",
			bytes.NewBufferString(`{"password":"powder"}`)))

		require.Equal(t, http.StatusOK, rec.Code)
		var out struct {
			Token string `json:"token"`
		}
		decodeBody(t, rec, &out)

		claims, err := auth.Parse(out.Token, "test-secret")
		require.NoError(t, err)
		assert.Equal(t, "owner", claims.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.owner.Login(rec, httptest.NewRequest(http.MethodPost, "/v1/owner/login",
			bytes.NewBufferString(`{"password":"nope"}`)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestOwnerList(t *testing.T) {
	e := newEnv(
		booking(domain.BookingPending, "2025-12-18", "2025-12-20"),
		booking(domain.BookingApproved, "2026-01-03", "2026-01-10"),
	)

	t.Run("filter by status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.owner.List(rec, httptest.NewRequest(http.MethodGet, "/v1/owner/bookings?status=pending", nil))

		var out struct {
			Bookings []domain.Booking `json:"bookings"`
		}
		decodeBody(t, rec, &out)
		require.Len(t, out.Bookings, 1)
		assert.Equal(t, domain.BookingPending, out.Bookings[0].Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.owner.List(rec, httptest.NewRequest(http.MethodGet, "/v1/owner/bookings?status=cancelled", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no filter returns everything", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.owner.List(rec, httptest.NewRequest(http.MethodGet, "/v1/owner/bookings", nil))

		var out struct {
			Bookings []domain.Booking `json:"bookings"`
		}
		decodeBody(t, rec, &out)
		assert.Len(t, out.Bookings, 2)
	})
}

func TestOwnerStats(t *testing.T) {
	e := newEnv(
		booking(domain.BookingApproved, "2025-12-18", "2025-12-20"),
		booking(domain.BookingPending, "2026-01-03", "2026-01-10"),
		booking(domain.BookingRejected, "2026-02-01", "2026-02-03"),
	)

	rec := httptest.NewRecorder()
	e.owner.Stats(rec, httptest.NewRequest(http.MethodGet, "/v1/owner/stats", nil))

	var out store.Counts
	decodeBody(t, rec, &out)
	assert.Equal(t, store.Counts{Approved: 1, Pending: 1, Rejected: 1}, out)
}

func ownerRequest(method, target string, id uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestOwnerApprove(t *testing.T) {
	t.Run("approved", func(t *testing.T) {
		e := newEnv()
		b := booking(domain.BookingApproved, "2025-12-18", "2025-12-20")
		e.svc.On("Approve", mock.Anything, b.ID).Return(&b, nil)

		rec := httptest.NewRecorder()
		e.owner.Approve(rec, ownerRequest(http.MethodPost, "/v1/owner/bookings/x/approve", b.ID))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("overlap maps to 409", func(t *testing.T) {
		e := newEnv()
		id := uuid.New()
		e.svc.On("Approve", mock.Anything, id).Return(nil, &domain.ConflictError{
			BookingID: uuid.New(), StartDate: "2025-12-24", EndDate: "2025-12-26",
		})

		rec := httptest.NewRecorder()
		e.owner.Approve(rec, ownerRequest(http.MethodPost, "/v1/owner/bookings/x/approve", id))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "CONFLICT")
	})

	t.Run("unknown id maps to 404", func(t *testing.T) {
		e := newEnv()
		id := uuid.New()
		e.svc.On("Approve", mock.Anything, id).Return(nil, domain.ErrNotFound)

		rec := httptest.NewRecorder()
		e.owner.Approve(rec, ownerRequest(http.MethodPost, "/v1/owner/bookings/x/approve", id))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestOwnerDelete(t *testing.T) {
	e := newEnv()
	id := uuid.New()
	e.svc.On("Remove", mock.Anything, id).Return(nil)

	rec := httptest.NewRecorder()
	e.owner.Delete(rec, ownerRequest(http.MethodDelete, "/v1/owner/bookings/x", id))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireOwner(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	guarded := middleware.RequireOwner("test-secret")(next)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/owner/stats", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/owner/stats", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := auth.NewOwnerSession("test-secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/owner/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.NewOwnerSession("other-secret", time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/owner/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
