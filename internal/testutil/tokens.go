package testutil

import (
	"time"

	"github.com/dalemusser/communityhub/internal/app/system/tokens"
)

// TokenConfig is the signing configuration used by tests: 15 minute access
// tokens and 7 day refresh tokens.
func TokenConfig() tokens.Config {
	return tokens.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "communityhub",
		Audience:      "communityhub-api",
	}
}

// TokenManager returns a tokens.Manager built from TokenConfig.
func TokenManager() *tokens.Manager {
	return tokens.NewManager(TokenConfig())
}
