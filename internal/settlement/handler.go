package settlement

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mfadhilr/edupay/internal/common/apperr"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// POST /api/v1/settlements
// Manual replay path for operators when an order.paid event was lost.
func (h *Handler) SettleOrder(w http.ResponseWriter, r *http.Request) {
	var event OrderPaidEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.SettleOrder(r.Context(), &event)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	status := http.StatusCreated
	if result.AlreadySettled {
		status = http.StatusOK
	}
	respondJSON(w, status, result)
}

// GET /api/v1/settlements/{order_id}
func (h *Handler) GetSettlement(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.GetSettlement(r.Context(), r.PathValue("order_id"))
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, s)
}

// GET /api/v1/settlements?limit=50&offset=0
func (h *Handler) ListSettlements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	settlements, err := h.service.ListSettlements(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list settlements")
		return
	}

	respondJSON(w, http.StatusOK, SettlementListResponse{Settlements: settlements, Total: len(settlements)})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
