package payout

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/common/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// POST /api/v1/payouts
func (h *Handler) CreatePayout(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	var req CreatePayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.CreatePayout(r.Context(), instructorID, req.Amount)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, PayoutResponse{PayoutRequest: p})
}

// GET /api/v1/payouts/me
func (h *Handler) GetMyPayouts(w http.ResponseWriter, r *http.Request) {
	instructorID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	limit, offset := pagination(r)
	payouts, err := h.service.MyPayouts(r.Context(), instructorID, limit, offset)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PayoutListResponse{PayoutRequests: payouts, Total: len(payouts)})
}

// GET /api/v1/payouts/pending
func (h *Handler) GetPendingPayouts(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.service.PendingPayouts)
}

// GET /api/v1/payouts/approved
func (h *Handler) GetApprovedPayouts(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.service.ApprovedPayouts)
}

// GET /api/v1/payouts/rejected
func (h *Handler) GetRejectedPayouts(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r, h.service.RejectedPayouts)
}

// GET /api/v1/payouts/{id}
func (h *Handler) GetPayout(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.PayoutByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PayoutResponse{PayoutRequest: p})
}

// POST /api/v1/payouts/{id}/accept
func (h *Handler) AcceptPayout(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.AcceptPayout(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PayoutResponse{PayoutRequest: p})
}

// POST /api/v1/payouts/{id}/deny
func (h *Handler) DenyPayout(w http.ResponseWriter, r *http.Request) {
	var req DenyPayoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.service.DenyPayout(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PayoutResponse{PayoutRequest: p})
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, list func(ctx context.Context, limit, offset int) ([]PayoutRequest, error)) {
	limit, offset := pagination(r)
	payouts, err := list(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list payout requests")
		return
	}

	respondJSON(w, http.StatusOK, PayoutListResponse{PayoutRequests: payouts, Total: len(payouts)})
}

func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
