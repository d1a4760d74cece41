// Package tokens issues and validates the HS256 JWTs used for API access.
//
// Access and refresh tokens are signed with different secrets, so one can
// never be presented as the other.
package tokens

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails parsing or validation.
var ErrInvalidToken = errors.New("invalid or expired token")

// Config carries the signing secrets and lifetimes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// AccessClaims are embedded in access tokens.
type AccessClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RefreshClaims are embedded in refresh tokens. The registered ID (jti) is a
// random UUID so two tokens issued in the same second still differ.
type RefreshClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// Refresh is a freshly issued refresh token with its persisted metadata.
type Refresh struct {
	Token     string
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Manager signs and verifies tokens.
type Manager struct {
	cfg Config
	now func() time.Time
}

// NewManager returns a Manager. Secrets are checked by configuration validation.
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, now: time.Now}
}

// AccessTTL is reported to clients as tokenExpiry.
func (m *Manager) AccessTTL() time.Duration { return m.cfg.AccessTTL }

func (m *Manager) registered(subject string, ttl time.Duration, id string) jwt.RegisteredClaims {
	now := m.now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    m.cfg.Issuer,
		Audience:  jwt.ClaimStrings{m.cfg.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        id,
	}
}

// IssueAccess signs an access token for u.
func (m *Manager) IssueAccess(u models.User) (string, error) {
	claims := AccessClaims{
		UserID:           u.ID.Hex(),
		Email:            u.Email,
		Role:             u.Role,
		RegisteredClaims: m.registered(u.ID.Hex(), m.cfg.AccessTTL, ""),
	}
	return sign(claims, m.cfg.AccessSecret)
}

// IssueRefresh signs a refresh token for userID.
func (m *Manager) IssueRefresh(userID string) (Refresh, error) {
	jti := uuid.NewString()
	rc := m.registered(userID, m.cfg.RefreshTTL, jti)
	tok, err := sign(RefreshClaims{UserID: userID, RegisteredClaims: rc}, m.cfg.RefreshSecret)
	if err != nil {
		return Refresh{}, err
	}
	return Refresh{
		Token:     tok,
		TokenID:   jti,
		IssuedAt:  rc.IssuedAt.Time,
		ExpiresAt: rc.ExpiresAt.Time,
	}, nil
}

// ParseAccess validates an access token and returns its claims.
func (m *Manager) ParseAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.parse(token, m.cfg.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseRefresh validates a refresh token and returns its claims.
func (m *Manager) ParseRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.parse(token, m.cfg.RefreshSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *Manager) parse(token, secret string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(m.cfg.Audience),
		jwt.WithIssuer(m.cfg.Issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func sign(claims jwt.Claims, secret string) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return s, nil
}

// Hash returns the hex SHA-256 of a token for storage.
func Hash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
