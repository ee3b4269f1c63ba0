package ledger

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

// GET /api/v1/transactions/{id}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	txn, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, TransactionResponse{Transaction: txn})
}

// GET /api/v1/transactions/pending
func (h *Handler) GetPendingTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := h.service.PendingTransactions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load pending transactions")
		return
	}

	respondJSON(w, http.StatusOK, TransactionListResponse{Transactions: txns, Total: len(txns)})
}

// GET /api/v1/transactions?limit=50&offset=0
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	txns, err := h.service.ListTransactions(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	respondJSON(w, http.StatusOK, TransactionListResponse{Transactions: txns, Total: len(txns)})
}

// GET /api/v1/transactions/next-id
func (h *Handler) GetNextTransactionID(w http.ResponseWriter, r *http.Request) {
	next, err := h.service.NextTransactionID(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to compute next id")
		return
	}

	respondJSON(w, http.StatusOK, NextIDResponse{NextID: next})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
