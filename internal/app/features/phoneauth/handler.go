// internal/app/features/phoneauth/handler.go
package phoneauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/inputval"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/signin"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PlaceholderEmailDomain is used for accounts created by phone sign-in, which
// have no email until the user adds one.
const PlaceholderEmailDomain = "phone.communityhub.invalid"

// Handler serves phone-number OTP sign-in. SMS delivery is not wired; codes
// are logged and, when ExposeOTP is set, echoed in the response.
type Handler struct {
	Users    *userstore.Store
	Signin   *signin.Issuer
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.AuthLimiter
	Log      *zap.Logger

	OTPExpiry time.Duration
	ExposeOTP bool

	Now func() time.Time
}

func NewHandler(db *mongo.Database, tm *tokens.Manager, al *auditlog.Logger, lim *ratelimit.AuthLimiter, otpExpiry time.Duration, exposeOTP bool, logger *zap.Logger) *Handler {
	if otpExpiry <= 0 {
		otpExpiry = authutil.DefaultOTPExpiry
	}
	return &Handler{
		Users:     userstore.New(db),
		Signin:    signin.New(tm, sessions.New(db)),
		AuditLog:  al,
		Limiter:   lim,
		Log:       logger,
		OTPExpiry: otpExpiry,
		ExposeOTP: exposeOTP,
		Now:       time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

type sendRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,mobile10"`
	CountryCode string `json:"countryCode" validate:"omitempty,countrycode"`
}

type sendResult struct {
	UserID      string `json:"userId"`
	PhoneNumber string `json:"phoneNumber"`
	IsNewUser   bool   `json:"isNewUser"`
	OTP         string `json:"otp,omitempty"`
}

// SendOTP handles POST /send-phone-otp.
//
// An unknown number gets a new Pending account with a placeholder name and
// email and a random password, so the same flow serves sign-up and sign-in.
func (h *Handler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	phone := normalize.Mobile(req.PhoneNumber)
	if ok, reason := h.Limiter.Check(r, phone); !ok {
		respond.Error(w, r, h.Log, apierr.TooManyRequests(reason))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, created, err := h.findOrCreate(ctx, phone, req.CountryCode)
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if u.Status == models.UserBlocked {
		respond.Error(w, r, h.Log, apierr.Forbidden("Account is blocked"))
		return
	}

	code, err := authutil.GenerateOTP()
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetOTP(ctx, u.ID, code, h.now().Add(h.OTPExpiry)); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	h.AuditLog.OTPSent(ctx, r, u.ID, "phone", "sign in")
	h.Log.Info("phone otp issued",
		zap.String("user_id", u.ID.Hex()),
		zap.String("phone", maskPhone(phone)),
		zap.Bool("new_user", created))

	res := sendResult{UserID: u.ID.Hex(), PhoneNumber: phone, IsNewUser: created}
	if h.ExposeOTP {
		res.OTP = code
	}
	respond.OK(w, "OTP sent successfully", res)
}

func (h *Handler) findOrCreate(ctx context.Context, phone, countryCode string) (models.User, bool, error) {
	u, err := h.Users.GetByMobile(ctx, phone)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, false, err
	}

	pw, err := authutil.RandomPassword()
	if err != nil {
		return models.User{}, false, err
	}
	hash, err := authutil.HashPassword(pw)
	if err != nil {
		return models.User{}, false, err
	}
	u, err = h.Users.Create(ctx, models.User{
		Name:         "User " + phone[len(phone)-4:],
		Email:        fmt.Sprintf("%s@%s", phone, PlaceholderEmailDomain),
		MobileNumber: phone,
		CountryCode:  countryCode,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateMobile) || errors.Is(err, userstore.ErrDuplicateEmail) {
		// A concurrent request created it first.
		u, err = h.Users.GetByMobile(ctx, phone)
		return u, false, err
	}
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

type verifyRequest struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,mobile10"`
	OTP         string `json:"otp" validate:"required,otp6"`
}

// VerifyOTP handles POST /verify-phone-otp. It checks the code the same way
// as email verification, then activates the account and signs the user in.
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := inputval.Decode(w, r, &req); err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Users.GetByMobile(ctx, req.PhoneNumber)
	if errors.Is(err, mongo.ErrNoDocuments) {
		respond.Error(w, r, h.Log, apierr.NotFound("User not found"))
		return
	}
	if err != nil {
		respond.Error(w, r, h.Log, err)
		return
	}
	if u.Status == models.UserBlocked {
		respond.Error(w, r, h.Log, apierr.Forbidden("Account is blocked"))
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

	if err := h.Users.VerifyMobile(ctx, u.ID, now); err != nil {
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
	h.Limiter.ResetAccount(req.PhoneNumber)
	h.AuditLog.OTPVerified(ctx, r, u.ID, "phone")

	respond.OK(w, "Phone number verified successfully", res)
}

// maskPhone keeps the last four digits.
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return "******" + phone[len(phone)-4:]
}
