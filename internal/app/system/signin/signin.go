// Package signin issues the access/refresh token pair handed to a client
// after a successful login or OTP verification, and records the refresh
// token as the user's only valid one.
package signin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/communityhub/internal/app/store/sessions"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/domain/models"
)

// Result is the token envelope returned by login and verification endpoints.
// Expiries are lifetimes in seconds.
type Result struct {
	User               models.User `json:"user"`
	AccessToken        string      `json:"accessToken"`
	RefreshToken       string      `json:"refreshToken"`
	TokenExpiry        int64       `json:"tokenExpiry"`
	RefreshTokenExpiry int64       `json:"refreshTokenExpiry"`
}

// Issuer signs token pairs and persists the refresh session.
type Issuer struct {
	tokens   *tokens.Manager
	sessions *sessions.Store
}

func New(tm *tokens.Manager, ss *sessions.Store) *Issuer {
	return &Issuer{tokens: tm, sessions: ss}
}

// Issue signs a new pair for u and supersedes any earlier refresh token.
func (i *Issuer) Issue(ctx context.Context, r *http.Request, u models.User) (Result, error) {
	access, err := i.tokens.IssueAccess(u)
	if err != nil {
		return Result{}, err
	}
	refresh, err := i.tokens.IssueRefresh(u.ID.Hex())
	if err != nil {
		return Result{}, err
	}
	if err := i.sessions.Replace(ctx, u.ID, refresh, ratelimit.ClientIP(r), r.UserAgent()); err != nil {
		return Result{}, fmt.Errorf("store session: %w", err)
	}
	return Result{
		User:               u,
		AccessToken:        access,
		RefreshToken:       refresh.Token,
		TokenExpiry:        int64(i.tokens.AccessTTL().Seconds()),
		RefreshTokenExpiry: int64(refresh.ExpiresAt.Sub(refresh.IssuedAt).Seconds()),
	}, nil
}
