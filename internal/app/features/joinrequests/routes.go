// internal/app/features/joinrequests/routes.go
package joinrequests

import (
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the join-request routes on the /api/v1/community router.
func (h *Handler) MountRoutes(r chi.Router, mw *auth.Middleware) {
	r.Group(func(pr chi.Router) {
		pr.Use(mw.RequireUser)
		pr.Post("/join-requests", h.Create)
		pr.Get("/join-requests/user", h.Mine)
		pr.Delete("/join-requests/{id}", h.Withdraw)

		pr.With(auth.RequireAdmin).Get("/communities/{id}/join-requests", h.ForCommunity)
		pr.With(auth.RequireAdmin).Patch("/join-requests/{id}/review", h.Review)
	})
}
