// internal/app/features/authapi/login.go
package authapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/store/sessions"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type loginRequest struct {
	Email        string `json:"email" validate:"omitempty,email"`
	MobileNumber string `json:"mobileNumber" validate:"omitempty,mobile10"`
	Password     string `json:"password" validate:"required"`
}

// Login handles POST /login with either email or mobileNumber.
//
// 404 when no live user matches, 400 when the account is not Active,
// 401 on a wrong password. Attempts are rate limited per IP and per account.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	identifier := req.Email
	if identifier == "" {
		identifier = req.MobileNumber
	}
	if identifier == "" {
		respond.Error(w, r, h.Log, apierr.Validation("Email or mobile number is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if ok, reason := h.Limiter.Check(r, identifier); !ok {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedRateLimit, nil, identifier, "rate_limited")
		respond.Error(w, r, h.Log, apierr.TooManyRequests(reason))
		return
	}

	var (
		u   models.User
		err error
	)
	if req.Email != "" {
		u, err = h.Users.GetByEmail(ctx, req.Email)
	} else {
		u, err = h.Users.GetByMobile(ctx, req.MobileNumber)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedUserMissing, nil, identifier, "user_not_found")
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if !u.IsActive() {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedInactive, &u.ID, identifier, "status_"+u.Status)
		respond.Error(w, r, h.Log, apierr.Validation("Account is not active. Please verify your account or contact support."))
		return
	}
	if !authutil.CheckPassword(u.PasswordHash, req.Password) {
		h.AuditLog.LoginFailed(ctx, r, audit.EventLoginFailedPassword, &u.ID, identifier, "wrong_password")
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Invalid credentials"))
		return
	}

	now := h.now()
	if err := h.Users.TouchLogin(ctx, u.ID, now); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u.LastLogin = &now
	res, err := h.Signin.Issue(ctx, r, u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.Limiter.ResetAccount(identifier)
	h.AuditLog.LoginSuccess(ctx, r, u.ID, identifier)

	respond.OK(w, "Login successful", res)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type refreshResult struct {
	AccessToken string `json:"accessToken"`
	TokenExpiry int64  `json:"tokenExpiry"`
}

// RefreshToken handles POST /refresh-token.
//
// The token must verify and also be the user's current session token, so a
// superseded or logged-out token is rejected before it expires. The refresh
// token itself is not rotated.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	invalid := apierr.Unauthenticated("Invalid or expired refresh token")
	claims, err := h.Tokens.ParseRefresh(req.RefreshToken)
	if err != nil {
		h.AuditLog.TokenRefreshFailed(ctx, r, nil, "invalid_token")
		respond.Error(w, r, h.Log, invalid)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		h.AuditLog.TokenRefreshFailed(ctx, r, nil, "invalid_subject")
		respond.Error(w, r, h.Log, invalid)
		return
	}

	if _, err := h.Sessions.Verify(ctx, userID, req.RefreshToken); err != nil {
		if errors.Is(err, sessions.ErrNoSession) {
			h.AuditLog.TokenRefreshFailed(ctx, r, &userID, "session_mismatch")
			respond.Error(w, r, h.Log, invalid)
			return
		}
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := h.Users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) || (err == nil && !u.IsActive()) {
		h.AuditLog.TokenRefreshFailed(ctx, r, &userID, "user_unavailable")
		respond.Error(w, r, h.Log, invalid)
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	access, err := h.Tokens.IssueAccess(u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Token refreshed successfully", refreshResult{
		AccessToken: access,
		TokenExpiry: int64(h.Tokens.AccessTTL().Seconds()),
	})
}

// Logout handles POST /logout. It revokes the caller's refresh token; access
// tokens already issued stay valid until they expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Sessions.Delete(ctx, su.ID); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.Logout(ctx, r, su.ID)

	respond.OK(w, "Logged out successfully", nil)
}

// Profile handles GET /profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, r, h.Log, apierr.Unauthenticated("Access token required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, su.ID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	respond.OK(w, "Profile fetched successfully", u)
}
