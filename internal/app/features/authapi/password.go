// internal/app/features/authapi/password.go
package authapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ForgotPassword handles POST /forgot-password by emailing a reset code.
// A failed email is logged only, as at registration.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	email, err := h.storeOTP(ctx, u, "reset your password")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.sendOTPLater(r, u, email, "reset your password")

	respond.OK(w, "Password reset OTP sent to your email", nil)
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required,otp6"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72,bcrypt72,strongpassword"`
}

// ResetPassword handles POST /reset-password. A successful reset signs the
// user out everywhere by revoking the refresh session.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := authutil.CheckOTP(u.OTP, u.OTPExpiry, req.OTP, h.now()); err != nil {
		if errors.Is(err, authutil.ErrOTPExpired) {
			h.AuditLog.OTPFailed(ctx, r, u.ID, "expired_otp")
			respond.Error(w, r, h.Log, apierr.Validation("OTP expired"))
			return
		}
		h.AuditLog.OTPFailed(ctx, r, u.ID, "invalid_otp")
		respond.Error(w, r, h.Log, apierr.Validation("Invalid OTP"))
		return
	}

	hash, err := authutil.HashPassword(req.NewPassword)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetPassword(ctx, u.ID, hash); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Sessions.Delete(ctx, u.ID); err != nil {
		h.Log.Warn("failed to revoke session after password reset", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	}
	h.AuditLog.PasswordReset(ctx, r, u.ID)

	respond.OK(w, "Password reset successfully", nil)
}
