package payout

import (
	"net/http"

	"github.com/mfadhilr/edupay/internal/common/middleware"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux, jwtSecret string) {
	protected := middleware.JWTAuth(jwtSecret)
	admin := func(next http.Handler) http.Handler {
		return protected(middleware.RequireAdmin(next))
	}

	mux.Handle("POST /api/v1/payouts", protected(http.HandlerFunc(h.CreatePayout)))
	mux.Handle("GET /api/v1/payouts/me", protected(http.HandlerFunc(h.GetMyPayouts)))

	mux.Handle("GET /api/v1/payouts/pending", admin(http.HandlerFunc(h.GetPendingPayouts)))
	mux.Handle("GET /api/v1/payouts/approved", admin(http.HandlerFunc(h.GetApprovedPayouts)))
	mux.Handle("GET /api/v1/payouts/rejected", admin(http.HandlerFunc(h.GetRejectedPayouts)))
	mux.Handle("GET /api/v1/payouts/{id}", admin(http.HandlerFunc(h.GetPayout)))
	mux.Handle("POST /api/v1/payouts/{id}/accept", admin(http.HandlerFunc(h.AcceptPayout)))
	mux.Handle("POST /api/v1/payouts/{id}/deny", admin(http.HandlerFunc(h.DenyPayout)))
}
