package wallet

import (
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

// POST /api/v1/wallets
func (h *Handler) CreateWallet(w http.ResponseWriter, r *http.Request) {
	var req CreateWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := h.service.CreateWallet(r.Context(), req.UserID)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, WalletResponse{Wallet: wallet})
}

// GET /api/v1/wallets/me
func (h *Handler) GetMyWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), userID)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, WalletResponse{Wallet: wallet})
}

// GET /api/v1/wallets/{user_id}
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.service.GetWallet(r.Context(), r.PathValue("user_id"))
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, WalletResponse{Wallet: wallet})
}

// GET /api/v1/wallets/{user_id}/events?limit=50
func (h *Handler) GetWalletEvents(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := h.service.ListEvents(r.Context(), r.PathValue("user_id"), limit)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, WalletEventsResponse{Events: events, Total: len(events)})
}

// POST /api/v1/wallets/{user_id}/recompute
func (h *Handler) RecomputeBalance(w http.ResponseWriter, r *http.Request) {
	wallet, err := h.service.RecomputeBalance(r.Context(), r.PathValue("user_id"))
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, WalletResponse{Wallet: wallet})
}

// GET /api/v1/wallets/platform
func (h *Handler) GetPlatformWallet(w http.ResponseWriter, r *http.Request) {
	pw, err := h.service.PlatformWallet(r.Context())
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, PlatformWalletResponse{PlatformWallet: pw})
}

// GET /api/v1/earnings/me
func (h *Handler) GetMyEarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "missing user identity")
		return
	}

	h.respondEarnings(w, r, userID)
}

// GET /api/v1/earnings/{instructor_id}
func (h *Handler) GetEarnings(w http.ResponseWriter, r *http.Request) {
	h.respondEarnings(w, r, r.PathValue("instructor_id"))
}

func (h *Handler) respondEarnings(w http.ResponseWriter, r *http.Request, instructorID string) {
	earnings, available, err := h.service.Earnings(r.Context(), instructorID)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, EarningsResponse{Earnings: earnings, Available: available})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
