// internal/app/features/authapi/register.go
package authapi

import (
	"context"
	"errors"
	"net/http"

	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const duplicateUserMsg = "User with this email or mobile number already exists"

type registerRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	Email        string `json:"email" validate:"required,email,max=254"`
	MobileNumber string `json:"mobileNumber" validate:"required,mobile10"`
	CountryCode  string `json:"countryCode" validate:"omitempty,countrycode"`
	Password     string `json:"password" validate:"required,min=8,max=72,bcrypt72,strongpassword"`
	Role         string `json:"role" validate:"omitempty,oneof=User Admin SuperAdmin"`
}

type registerResult struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// Register handles POST /register.
//
// Creates a Pending user and emails a verification code. A failed email does
// not fail registration; the client can call resend-otp.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if req.Role != "" && req.Role != models.RoleUser && !h.AllowRoleSignup {
		respond.Error(w, r, h.Log, apierr.Forbidden("Cannot register with role "+req.Role))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	_, err := h.Users.FindConflict(ctx, req.Email, req.MobileNumber)
	if err == nil {
		respond.Error(w, r, h.Log, apierr.Conflict(duplicateUserMsg))
		return
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, err)
		return
	}

	hash, err := authutil.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err := h.Users.Create(ctx, models.User{
		Name:         req.Name,
		Email:        req.Email,
		MobileNumber: req.MobileNumber,
		CountryCode:  req.CountryCode,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) || errors.Is(err, userstore.ErrDuplicateMobile) {
		respond.Error(w, r, h.Log, apierr.Conflict(duplicateUserMsg))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.Registered(ctx, r, u.ID, u.Email)

	if email, err := h.storeOTP(ctx, u, "verify your email"); err != nil {
		h.Log.Error("failed to store registration otp", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	} else {
		h.sendOTPLater(r, u, email, "verify your email")
	}

	respond.Created(w, "User registered successfully. Please verify your email with the OTP sent.",
		registerResult{UserID: u.ID.Hex(), Email: u.Email})
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,otp6"`
}

// VerifyOTP handles POST /verify-otp.
//
// Checks run in order: user exists, not yet verified, code matches, code not
// expired. Success activates the account and signs the user in.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
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
	if u.IsEmailVerified {
		respond.Error(w, r, h.Log, apierr.Validation("User already verified"))
		return
	}
	now := h.now()
	if err := authutil.CheckOTP(u.OTP, u.OTPExpiry, req.OTP, now); err != nil {
		if errors.Is(err, authutil.ErrOTPExpired) {
			h.AuditLog.OTPFailed(ctx, r, u.ID, "expired_otp")
			respond.Error(w, r, h.Log, apierr.Validation("OTP expired"))
			return
		}
		h.AuditLog.OTPFailed(ctx, r, u.ID, "invalid_otp")
		respond.Error(w, r, h.Log, apierr.Validation("Invalid OTP"))
		return
	}

	if err := h.Users.VerifyEmail(ctx, u.ID, now); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	u, err = h.Users.GetByID(ctx, u.ID)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	res, err := h.Signin.Issue(ctx, r, u)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.OTPVerified(ctx, r, u.ID, "email")

	respond.OK(w, "Email verified successfully", res)
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResendOTP handles POST /resend-otp. Unlike registration, a failed email is
// reported to the client.
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
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
	if u.IsEmailVerified {
		respond.Error(w, r, h.Log, apierr.Validation("User already verified"))
		return
	}

	email, err := h.storeOTP(ctx, u, "verify your email")
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.sendOTP(ctx, r, u, email, "verify your email"); err != nil {
		respond.Error(w, r, h.Log, apierr.Unavailable("Failed to send OTP email", err))
		return
	}

	respond.OK(w, "OTP sent successfully", registerResult{UserID: u.ID.Hex(), Email: u.Email})
}
