// Package auth authenticates API requests from bearer access tokens and
// gates routes by role.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// SessionUser is the authenticated caller injected into r.Context().
type SessionUser struct {
	ID    primitive.ObjectID
	Name  string
	Email string
	Role  string
}

// IsAdmin reports whether the caller holds Admin or SuperAdmin.
func (u *SessionUser) IsAdmin() bool { return models.IsAdminRole(u.Role) }

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user and a "found?" flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u without a token. Tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// UserLoader loads a non-deleted user by id.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
}

// Middleware resolves the bearer token to a live, Active user on every request,
// so blocked or deleted accounts lose access before their token expires.
type Middleware struct {
	tokens *tokens.Manager
	users  UserLoader
	log    *zap.Logger
}

func NewMiddleware(tm *tokens.Manager, users UserLoader, log *zap.Logger) *Middleware {
	return &Middleware{tokens: tm, users: users, log: log}
}

// BearerToken returns the token from the Authorization header. A bare token
// without the "Bearer " prefix is accepted.
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return h
}

// RequireUser rejects the request with 401 unless it carries a valid access
// token for an Active, non-deleted user.
func (m *Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			respond.Error(w, r, m.log, apierr.Unauthenticated("Access token required"))
			return
		}
		claims, err := m.tokens.ParseAccess(raw)
		if err != nil {
			respond.Error(w, r, m.log, apierr.Unauthenticated("Invalid or expired token"))
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			respond.Error(w, r, m.log, apierr.Unauthenticated("Invalid or expired token"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
		u, err := m.users.GetByID(ctx, id)
		cancel()
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, r, m.log, apierr.Unauthenticated("User not found"))
			return
		}
		if err != nil {
			respond.Error(w, r, m.log, apierr.Unavailable("Server error", err))
			return
		}
		if !u.IsActive() {
			respond.Error(w, r, m.log, apierr.Unauthenticated("Account is not active"))
			return
		}

		next.ServeHTTP(w, withUser(r, &SessionUser{
			ID:    u.ID,
			Name:  u.Name,
			Email: u.Email,
			Role:  u.Role,
		}))
	})
}

// RequireRole allows only callers whose role is in allowed. Must run after RequireUser.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(role)] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Error(w, r, nil, apierr.Unauthenticated("Access token required"))
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Error(w, r, nil, apierr.Forbidden("You do not have permission to perform this action"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows Admin and SuperAdmin.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin, models.RoleSuperAdmin)(next)
}
