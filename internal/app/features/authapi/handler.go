// internal/app/features/authapi/handler.go
package authapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/mailer"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/signin"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/app/system/workers"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the email/password and email OTP authentication endpoints.
type Handler struct {
	Users    *userstore.Store
	Sessions *sessions.Store
	Tokens   *tokens.Manager
	Signin   *signin.Issuer
	Mailer   mailer.Sender
	AuditLog *auditlog.Logger
	Limiter  *ratelimit.AuthLimiter
	Log      *zap.Logger

	// Jobs sends registration and password-reset emails after the response.
	// Nil sends them inline.
	Jobs *workers.Runner

	SiteName  string
	OTPExpiry time.Duration
	// AllowRoleSignup lets registration honour an elevated role in the
	// request body. Off in production.
	AllowRoleSignup bool

	Now func() time.Time
}

// Options carries the non-store settings for NewHandler.
type Options struct {
	SiteName        string
	OTPExpiry       time.Duration
	AllowRoleSignup bool
	Jobs            *workers.Runner
}

func NewHandler(db *mongo.Database, tm *tokens.Manager, m mailer.Sender, al *auditlog.Logger, lim *ratelimit.AuthLimiter, opts Options, logger *zap.Logger) *Handler {
	if opts.OTPExpiry <= 0 {
		opts.OTPExpiry = authutil.DefaultOTPExpiry
	}
	ss := sessions.New(db)
	return &Handler{
		Users:           userstore.New(db),
		Sessions:        ss,
		Tokens:          tm,
		Signin:          signin.New(tm, ss),
		Mailer:          m,
		AuditLog:        al,
		Limiter:         lim,
		Log:             logger,
		Jobs:            opts.Jobs,
		SiteName:        opts.SiteName,
		OTPExpiry:       opts.OTPExpiry,
		AllowRoleSignup: opts.AllowRoleSignup,
		Now:             time.Now,
	}
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now().UTC()
}

// storeOTP saves a fresh code on u and returns the email that carries it.
func (h *Handler) storeOTP(ctx context.Context, u models.User, purpose string) (mailer.Email, error) {
	code, err := authutil.GenerateOTP()
	if err != nil {
		return mailer.Email{}, err
	}
	if err := h.Users.SetOTP(ctx, u.ID, code, h.now().Add(h.OTPExpiry)); err != nil {
		return mailer.Email{}, err
	}
	return mailer.BuildOTPEmail(u.Email, mailer.OTPEmailData{
		SiteName:  h.SiteName,
		Name:      u.Name,
		Code:      code,
		Purpose:   purpose,
		ExpiresIn: fmt.Sprintf("%d minutes", int(h.OTPExpiry.Minutes())),
	}), nil
}

// sendOTP delivers email and records the audit event.
func (h *Handler) sendOTP(ctx context.Context, r *http.Request, u models.User, email mailer.Email, purpose string) error {
	if err := h.Mailer.Send(ctx, email); err != nil {
		return fmt.Errorf("send %q otp to user %s: %w", purpose, u.ID.Hex(), err)
	}
	h.AuditLog.OTPSent(ctx, r, u.ID, "email", purpose)
	return nil
}

// sendOTPLater delivers email on h.Jobs so the response does not wait for
// SMTP. Failures are logged only.
func (h *Handler) sendOTPLater(r *http.Request, u models.User, email mailer.Email, purpose string) {
	r = r.Clone(context.WithoutCancel(r.Context()))
	if h.Jobs == nil {
		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
		defer cancel()
		if err := h.sendOTP(ctx, r, u, email, purpose); err != nil {
			h.Log.Warn("failed to send otp email", zap.String("user_id", u.ID.Hex()), zap.Error(err))
		}
		return
	}
	h.Jobs.Go("otp email", func(ctx context.Context) error {
		return h.sendOTP(ctx, r, u, email, purpose)
	})
}
