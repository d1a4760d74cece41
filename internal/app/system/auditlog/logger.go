// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/store/audit"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
// Each field takes "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only) or "off".
type Config struct {
	Auth  string
	Admin string
}

// Logger records audit events to MongoDB and zap according to Config.
// A nil *Logger is a no-op, so tests may leave it unset.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.CommunityID != nil {
		fields = append(fields, zap.String("community_id", event.CommunityID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records event according to the setting for its category.
// Unknown categories are always logged everywhere.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	setting := "all"
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryAdmin:
		setting = l.config.Admin
	}

	switch setting {
	case "off":
		return
	case "log":
		l.logToZap(event)
	case "db":
		l.storeEvent(ctx, event)
	default:
		l.logToZap(event)
		l.storeEvent(ctx, event)
	}
}

func (l *Logger) storeEvent(ctx context.Context, event audit.Event) {
	if err := l.store.Log(ctx, event); err != nil {
		l.zapLog.Error("failed to store audit event",
			zap.Error(err),
			zap.String("event_type", event.EventType))
	}
}

func authEvent(r *http.Request, eventType string, userID *primitive.ObjectID, success bool) audit.Event {
	return audit.Event{
		Category:  audit.CategoryAuth,
		EventType: eventType,
		UserID:    userID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   success,
	}
}

// --- Authentication Events ---

// Registered logs a new account awaiting email verification.
func (l *Logger) Registered(ctx context.Context, r *http.Request, userID primitive.ObjectID, email string) {
	e := authEvent(r, audit.EventRegistered, &userID, true)
	e.Details = map[string]string{"email": email}
	l.Log(ctx, e)
}

// OTPSent logs a one-time code being issued. channel is "email" or "phone".
func (l *Logger) OTPSent(ctx context.Context, r *http.Request, userID primitive.ObjectID, channel, purpose string) {
	e := authEvent(r, audit.EventOTPSent, &userID, true)
	e.Details = map[string]string{"channel": channel, "purpose": purpose}
	l.Log(ctx, e)
}

// OTPVerified logs a successful code verification.
func (l *Logger) OTPVerified(ctx context.Context, r *http.Request, userID primitive.ObjectID, channel string) {
	e := authEvent(r, audit.EventOTPVerified, &userID, true)
	e.Details = map[string]string{"channel": channel}
	l.Log(ctx, e)
}

// OTPFailed logs a rejected code (mismatch or expiry).
func (l *Logger) OTPFailed(ctx context.Context, r *http.Request, userID primitive.ObjectID, reason string) {
	e := authEvent(r, audit.EventOTPFailed, &userID, false)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// LoginSuccess logs a successful password login.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, identifier string) {
	e := authEvent(r, audit.EventLoginSuccess, &userID, true)
	e.Details = map[string]string{"identifier": identifier}
	l.Log(ctx, e)
}

// LoginFailed logs a failed login. userID is nil when no account matched.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, eventType string, userID *primitive.ObjectID, identifier, reason string) {
	e := authEvent(r, eventType, userID, false)
	e.FailureReason = reason
	e.Details = map[string]string{"identifier": identifier}
	l.Log(ctx, e)
}

// TokenRefreshFailed logs a rejected refresh token.
func (l *Logger) TokenRefreshFailed(ctx context.Context, r *http.Request, userID *primitive.ObjectID, reason string) {
	e := authEvent(r, audit.EventTokenRefreshFailed, userID, false)
	e.FailureReason = reason
	l.Log(ctx, e)
}

// Logout logs a user logout.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventLogout, &userID, true))
}

// PasswordReset logs a completed password reset.
func (l *Logger) PasswordReset(ctx context.Context, r *http.Request, userID primitive.ObjectID) {
	l.Log(ctx, authEvent(r, audit.EventPasswordReset, &userID, true))
}

// --- Admin Events ---

// AdminAction logs a privileged change made by actorID. userID and
// communityID identify what was affected and may be nil.
func (l *Logger) AdminAction(ctx context.Context, r *http.Request, eventType string, actorID primitive.ObjectID, userID, communityID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:    audit.CategoryAdmin,
		EventType:   eventType,
		ActorID:     &actorID,
		UserID:      userID,
		CommunityID: communityID,
		IP:          ratelimit.ClientIP(r),
		UserAgent:   r.UserAgent(),
		Success:     true,
		Details:     details,
	})
}
