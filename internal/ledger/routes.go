package ledger

import (
	"net/http"

	"github.com/mfadhilr/edupay/internal/common/middleware"
)

// RegisterRoutes exposes the read-only audit views. Transactions are created
// by settlement and payout flows, never directly over HTTP.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, jwtSecret string) {
	protected := middleware.JWTAuth(jwtSecret)
	admin := func(next http.Handler) http.Handler {
		return protected(middleware.RequireAdmin(next))
	}

	mux.Handle("GET /api/v1/transactions", admin(http.HandlerFunc(h.ListTransactions)))
	mux.Handle("GET /api/v1/transactions/pending", admin(http.HandlerFunc(h.GetPendingTransactions)))
	mux.Handle("GET /api/v1/transactions/next-id", admin(http.HandlerFunc(h.GetNextTransactionID)))
	mux.Handle("GET /api/v1/transactions/{id}", admin(http.HandlerFunc(h.GetTransaction)))
}
