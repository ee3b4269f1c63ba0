package archive

import (
	"net/http"

	"github.com/mfadhilr/edupay/internal/common/middleware"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux, jwtSecret string) {
	protected := middleware.JWTAuth(jwtSecret)
	admin := func(next http.Handler) http.Handler {
		return protected(middleware.RequireAdmin(next))
	}

	mux.Handle("GET /api/v1/archive", admin(http.HandlerFunc(h.ListArchived)))
	mux.Handle("GET /api/v1/archive/{id}", admin(http.HandlerFunc(h.GetArchived)))
	mux.Handle("POST /api/v1/archive/{id}", admin(http.HandlerFunc(h.Archive)))
	mux.Handle("POST /api/v1/archive/{id}/restore", admin(http.HandlerFunc(h.Unarchive)))
}
