package settlement

import (
	"net/http"

	"github.com/mfadhilr/edupay/internal/common/middleware"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux, jwtSecret string) {
	protected := middleware.JWTAuth(jwtSecret)
	admin := func(next http.Handler) http.Handler {
		return protected(middleware.RequireAdmin(next))
	}

	mux.Handle("POST /api/v1/settlements", admin(http.HandlerFunc(h.SettleOrder)))
	mux.Handle("GET /api/v1/settlements", admin(http.HandlerFunc(h.ListSettlements)))
	mux.Handle("GET /api/v1/settlements/{order_id}", admin(http.HandlerFunc(h.GetSettlement)))
}
