// internal/app/features/announcements/routes.go
package announcements

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes mounts the announcement routes on the /api/v1/community router.
// Reads are public; creating requires an admin.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Get("/announcements/recent", h.Recent)
	r.Get("/communities/{id}/announcements", h.ForCommunity)

	r.With(mw.RequireUser, auth.RequireAdmin).Post("/announcements", h.Create)
}
