package wallet

import (
	"net/http"

	"github.com/mfadhilr/edupay/internal/common/middleware"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux, jwtSecret string) {
	protected := middleware.JWTAuth(jwtSecret)
	admin := func(next http.Handler) http.Handler {
		return protected(middleware.RequireAdmin(next))
	}

	mux.Handle("GET /api/v1/wallets/me", protected(http.HandlerFunc(h.GetMyWallet)))
	mux.Handle("GET /api/v1/earnings/me", protected(http.HandlerFunc(h.GetMyEarnings)))

	mux.Handle("POST /api/v1/wallets", admin(http.HandlerFunc(h.CreateWallet)))
	mux.Handle("GET /api/v1/wallets/platform", admin(http.HandlerFunc(h.GetPlatformWallet)))
	mux.Handle("GET /api/v1/wallets/{user_id}", admin(http.HandlerFunc(h.GetWallet)))
	mux.Handle("GET /api/v1/wallets/{user_id}/events", admin(http.HandlerFunc(h.GetWalletEvents)))
	mux.Handle("POST /api/v1/wallets/{user_id}/recompute", admin(http.HandlerFunc(h.RecomputeBalance)))
	mux.Handle("GET /api/v1/earnings/{instructor_id}", admin(http.HandlerFunc(h.GetEarnings)))
}
