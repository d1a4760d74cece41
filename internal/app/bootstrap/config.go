// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	communitystore "github.com/dalemusser/communityhub/internal/app/store/communities"
	"github.com/dalemusser/communityhub/internal/app/system/authutil"
	"github.com/dalemusser/communityhub/internal/app/system/normalize"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// Development-only JWT secrets. ValidateConfig rejects them in prod.
const (
	devAccessSecret  = "dev-only-access-secret-change-me-0123456789"
	devRefreshSecret = "dev-only-refresh-secret-change-me-9876543210"
)

// appConfigKeys defines the configuration keys for CommunityHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_access_secret, etc.
//   - Environment variables: COMMUNITYHUB_MONGO_URI, COMMUNITYHUB_JWT_ACCESS_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_access_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "community_hub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// JWT
	{Name: "jwt_access_secret", Default: devAccessSecret, Desc: "Access token signing secret (must be strong in production)"},
	{Name: "jwt_refresh_secret", Default: devRefreshSecret, Desc: "Refresh token signing secret (must differ from the access secret)"},
	{Name: "jwt_access_ttl", Default: "1h", Desc: "Access token lifetime (e.g., 15m, 1h)"},
	{Name: "jwt_refresh_ttl", Default: "168h", Desc: "Refresh token lifetime (e.g., 168h)"},
	{Name: "jwt_issuer", Default: "communityhub", Desc: "JWT issuer claim"},
	{Name: "jwt_audience", Default: "communityhub-api", Desc: "JWT audience claim"},

	// OTP
	{Name: "otp_expiry", Default: "10m", Desc: "OTP code expiry (e.g., 10m, 90s)"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank logs emails instead of sending)"},
	{Name: "mail_smtp_port", Default: 587, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@communityhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "CommunityHub", Desc: "From display name"},
	{Name: "site_name", Default: "CommunityHub", Desc: "Site name used in email copy"},

	// HTTP
	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated list of allowed CORS origins"},

	// Directory
	{Name: "community_default_status", Default: models.CommunityActive, Desc: "Status filter when a community list request has none: active, inactive, pending or all"},

	// Rate limiting
	{Name: "auth_rate_limit", Default: 20, Desc: "Credential attempts allowed per client IP per window"},
	{Name: "auth_rate_window", Default: "1m", Desc: "Credential rate limit window"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Store call timeouts
	{Name: "timeout_ping", Default: "2s", Desc: "Deadline for health pings"},
	{Name: "timeout_short", Default: "5s", Desc: "Deadline for single-document reads"},
	{Name: "timeout_medium", Default: "10s", Desc: "Deadline for list queries and writes"},
	{Name: "timeout_long", Default: "30s", Desc: "Deadline for multi-collection writes"},

	// Registration
	{Name: "allow_role_signup", Default: false, Desc: "Honour an elevated role in the registration body (never enable in production)"},

	// Background jobs
	{Name: "otp_cleanup_interval", Default: "15m", Desc: "How often expired OTPs are cleared (0 disables)"},
	{Name: "session_cleanup_interval", Default: "1h", Desc: "How often expired refresh sessions are removed (0 disables)"},

	// SuperAdmin bootstrap
	{Name: "superadmin_email", Default: "", Desc: "Email of a registered user to promote to SuperAdmin on startup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config.yaml/json/toml
// files, environment variables (WAFFLE_* for core, COMMUNITYHUB_* for app)
// and command-line flags, merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "COMMUNITYHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		// JWT
		JWTAccessSecret:  appValues.String("jwt_access_secret"),
		JWTRefreshSecret: appValues.String("jwt_refresh_secret"),
		JWTAccessTTL:     appValues.Duration("jwt_access_ttl", time.Hour),
		JWTRefreshTTL:    appValues.Duration("jwt_refresh_ttl", 7*24*time.Hour),
		JWTIssuer:        appValues.String("jwt_issuer"),
		JWTAudience:      appValues.String("jwt_audience"),

		OTPExpiry: appValues.Duration("otp_expiry", authutil.DefaultOTPExpiry),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		SiteName:     appValues.String("site_name"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		CommunityDefaultStatus: normalize.Status(appValues.String("community_default_status")),

		AuthRateLimit:  appValues.Int("auth_rate_limit"),
		AuthRateWindow: appValues.Duration("auth_rate_window", time.Minute),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		TimeoutPing:   appValues.Duration("timeout_ping", 0),
		TimeoutShort:  appValues.Duration("timeout_short", 0),
		TimeoutMedium: appValues.Duration("timeout_medium", 0),
		TimeoutLong:   appValues.Duration("timeout_long", 0),

		AllowRoleSignup: appValues.Bool("allow_role_signup"),

		OTPCleanupInterval:     appValues.Duration("otp_cleanup_interval", 15*time.Minute),
		SessionCleanupInterval: appValues.Duration("session_cleanup_interval", time.Hour),

		SuperAdminEmail: normalize.Email(appValues.String("superadmin_email")),
	}

	return coreCfg, appCfg, nil
}

// splitList parses a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

var validCommunityStatuses = map[string]bool{
	models.CommunityActive:   true,
	models.CommunityInactive: true,
	models.CommunityPending:  true,
	communitystore.StatusAll: true,
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The Mongo URI is checked before connecting; JWT secrets must be present
// and distinct, and the development defaults are refused in prod.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return errors.New("mongo_database must be set")
	}

	if appCfg.JWTAccessSecret == "" || appCfg.JWTRefreshSecret == "" {
		return errors.New("jwt_access_secret and jwt_refresh_secret must be set")
	}
	if appCfg.JWTAccessSecret == appCfg.JWTRefreshSecret {
		return errors.New("jwt_access_secret and jwt_refresh_secret must differ")
	}
	if appCfg.JWTAccessTTL <= 0 || appCfg.JWTRefreshTTL <= 0 {
		return errors.New("jwt_access_ttl and jwt_refresh_ttl must be positive")
	}
	if coreCfg != nil && coreCfg.Env == "prod" {
		if appCfg.JWTAccessSecret == devAccessSecret || appCfg.JWTRefreshSecret == devRefreshSecret {
			return errors.New("development JWT secrets cannot be used in prod")
		}
		if appCfg.AllowRoleSignup {
			return errors.New("allow_role_signup cannot be enabled in prod")
		}
	}

	if !validCommunityStatuses[appCfg.CommunityDefaultStatus] {
		return fmt.Errorf("community_default_status %q must be one of active, inactive, pending, all", appCfg.CommunityDefaultStatus)
	}
	if appCfg.OTPExpiry <= 0 {
		return errors.New("otp_expiry must be positive")
	}
	if appCfg.AuthRateLimit <= 0 || appCfg.AuthRateWindow <= 0 {
		return errors.New("auth_rate_limit and auth_rate_window must be positive")
	}

	return nil
}
