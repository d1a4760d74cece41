// internal/app/features/phoneauth/routes.go
package phoneauth

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /api/v1/users/admin.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/send-phone-otp", h.SendOTP)
	r.Post("/verify-phone-otp", h.VerifyOTP)
	return r
}
