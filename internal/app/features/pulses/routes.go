// internal/app/features/pulses/routes.go
package pulses

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the pulse routes on the /api/v1/community router.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Get("/communities/{id}/pulses", h.List)

	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireUser)
		pr.Post("/communities/{id}/pulses", h.Create)
		pr.Post("/pulses/{id}/like", h.ToggleLike)
		pr.Post("/pulses/{id}/comments", h.AddComment)
		pr.With(auth.RequireAdmin).Patch("/pulses/{id}/status", h.SetStatus)
	})
}
