package archive

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mfadhilr/edupay/internal/common/apperr"
	"github.com/mfadhilr/edupay/internal/ledger"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// POST /api/v1/archive/{id}
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	archived, err := h.service.Archive(r.Context(), id)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ArchivedResponse{ArchivedTransaction: archived})
}

// POST /api/v1/archive/{id}/restore
func (h *Handler) Unarchive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	txn, err := h.service.Unarchive(r.Context(), id)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ledger.TransactionResponse{Transaction: txn})
}

// GET /api/v1/archive/{id}
func (h *Handler) GetArchived(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	archived, err := h.service.GetArchived(r.Context(), id)
	if err != nil {
		respondError(w, apperr.HTTPStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, ArchivedResponse{ArchivedTransaction: archived})
}

// GET /api/v1/archive?limit=50&offset=0
func (h *Handler) ListArchived(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	archived, err := h.service.ListArchived(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list archived transactions")
		return
	}

	respondJSON(w, http.StatusOK, ArchivedListResponse{ArchivedTransactions: archived, Total: len(archived)})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
