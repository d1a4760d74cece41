// internal/app/features/communities/routes.go
package communities

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the directory routes on the /api/v1/community router.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Get("/communities", h.List)
	r.Get("/communities/featured", h.Featured)
	r.Get("/communities/{id}", h.Get)
	r.Get("/communities/{id}/members", h.Members)

	r.With(mw.RequireUser, auth.RequireAdmin).Post("/communities", h.Create)
}
