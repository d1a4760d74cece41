// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for CommunityHub.
//
// Values come from config files, COMMUNITYHUB_* environment variables or
// command-line flags (see appConfigKeys). WAFFLE's CoreConfig covers the
// framework-level settings: ports, TLS, log level and request limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// JWT signing. Access and refresh tokens use different secrets.
	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	JWTIssuer        string
	JWTAudience      string

	// OTP lifetime for email and phone verification codes
	OTPExpiry time.Duration

	// Email/SMTP configuration. A blank host logs emails instead of sending.
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string
	SiteName     string

	// Browser origins allowed to call the API
	CORSAllowedOrigins []string

	// Status applied to GET /communities when the caller sends none
	CommunityDefaultStatus string

	// Credential endpoint rate limiting (per client IP)
	AuthRateLimit  int
	AuthRateWindow time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Store call deadlines used by handlers
	TimeoutPing   time.Duration
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
	TimeoutLong   time.Duration

	// AllowRoleSignup lets registration honour an elevated role in the body.
	AllowRoleSignup bool

	// Background maintenance intervals. Zero disables a job.
	OTPCleanupInterval     time.Duration
	SessionCleanupInterval time.Duration

	// SuperAdmin bootstrap: an existing user with this email is promoted on startup.
	SuperAdminEmail string
}
