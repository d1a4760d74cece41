// internal/app/features/events/routes.go
package events

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the event routes on the /api/v1/community router.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Get("/events/recent", h.Recent)
	r.Get("/communities/{id}/events", h.ForCommunity)

	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireUser)
		pr.Post("/events/{id}/register", h.Register)
		pr.Post("/events/{id}/attendance", h.MarkAttendance)
		pr.With(auth.RequireAdmin).Post("/events", h.Create)
	})
}
