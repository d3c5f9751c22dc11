package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/alexedwards/argon2id"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/svq/chalet-bookings/internal/domain"
	"github.com/svq/chalet-bookings/internal/http/response"
	"github.com/svq/chalet-bookings/internal/service"
	"github.com/svq/chalet-bookings/internal/store"
	"github.com/svq/chalet-bookings/pkg/auth"
	"github.com/svq/chalet-bookings/pkg/config"
	"github.com/svq/chalet-bookings/pkg/logger"
)

type OwnerHandler struct {
	store *store.Store
	svc   service.BookingService
	owner config.OwnerConfig
}

func NewOwnerHandler(st *store.Store, svc service.BookingService, owner config.OwnerConfig) *OwnerHandler {
	return &OwnerHandler{store: st, svc: svc, owner: owner}
}

type loginRequest struct {
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login trades the owner password for a session token. The argon2id
// hash wins when configured; the plain password compare is the dev
// fallback.
func (h *OwnerHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid json")
		return
	}

	if !h.passwordMatches(req.Password) {
		response.Unauthorized(w, "wrong password")
		return
	}

	token, err := auth.NewOwnerSession(h.owner.JWTSecret, h.owner.SessionTTL)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to mint owner session", "error", err)
		response.InternalError(w, "internal error")
		return
	}
	response.JSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *OwnerHandler) passwordMatches(password string) bool {
	if h.owner.PasswordHash != "" {
		match, err := argon2id.ComparePasswordAndHash(password, h.owner.PasswordHash)
		return err == nil && match
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(h.owner.Password)) == 1
}

// List returns every booking, optionally filtered by status. The owner
// sees contact details; the guest endpoints never do.
func (h *OwnerHandler) List(w http.ResponseWriter, r *http.Request) {
	var bookings []domain.Booking
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseBookingStatus(raw)
		if !ok {
			response.BadRequest(w, "status must be pending, approved or rejected")
			return
		}
		bookings = h.store.ByStatus(status)
	} else {
		bookings = h.store.All()
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	response.JSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

// Stats reports per-status counts for the owner dashboard.
func (h *OwnerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.store.Counts())
}

func bookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "invalid booking id")
		return uuid.Nil, false
	}
	return id, true
}

// Approve confirms a pending request unless its dates overlap an
// already approved stay.
func (h *OwnerHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	booking, err := h.svc.Approve(r.Context(), id)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

// Reject declines a pending request or revokes a previous approval.
func (h *OwnerHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	booking, err := h.svc.Reject(r.Context(), id)
	if err != nil {
		response.DomainError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, booking)
}

// Delete removes a booking outright, whatever its status.
func (h *OwnerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Remove(r.Context(), id); err != nil {
		response.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
