// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	amenitiesfeature "github.com/dalemusser/communityhub/internal/app/features/amenities"
	announcementsfeature "github.com/dalemusser/communityhub/internal/app/features/announcements"
	authapifeature "github.com/dalemusser/communityhub/internal/app/features/authapi"
	communitiesfeature "github.com/dalemusser/communityhub/internal/app/features/communities"
	eventsfeature "github.com/dalemusser/communityhub/internal/app/features/events"
	healthfeature "github.com/dalemusser/communityhub/internal/app/features/health"
	joinrequestsfeature "github.com/dalemusser/communityhub/internal/app/features/joinrequests"
	marketplacefeature "github.com/dalemusser/communityhub/internal/app/features/marketplace"
	phoneauthfeature "github.com/dalemusser/communityhub/internal/app/features/phoneauth"
	pulsesfeature "github.com/dalemusser/communityhub/internal/app/features/pulses"
	"github.com/dalemusser/communityhub/internal/app/store/audit"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/apierr"
	"github.com/dalemusser/communityhub/internal/app/system/auditlog"
	"github.com/dalemusser/communityhub/internal/app/system/auth"
	"github.com/dalemusser/communityhub/internal/app/system/mailer"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/reqlog"
	"github.com/dalemusser/communityhub/internal/app/system/respond"
	"github.com/dalemusser/communityhub/internal/app/system/tokens"
	"github.com/dalemusser/communityhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// communityMounter is implemented by every feature served under /api/v1/community.
type communityMounter interface {
	MountRoutes(r chi.Router, mw *auth.Middleware)
}

// BuildHandler constructs the root HTTP handler (router) for CommunityHub.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. Token, mail and audit services are built
// here from appCfg and handed to each feature's constructor.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.MongoDatabase == nil {
		return nil, errors.New("build handler: mongo database not connected")
	}
	db := deps.MongoDatabase

	tm := tokens.NewManager(tokens.Config{
		AccessSecret:  appCfg.JWTAccessSecret,
		RefreshSecret: appCfg.JWTRefreshSecret,
		AccessTTL:     appCfg.JWTAccessTTL,
		RefreshTTL:    appCfg.JWTRefreshTTL,
		Issuer:        appCfg.JWTIssuer,
		Audience:      appCfg.JWTAudience,
	})

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		Username: appCfg.MailSMTPUser,
		Password: appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)

	al := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	mw := auth.NewMiddleware(tm, userstore.New(db), logger)

	limiter := deps.limiter()
	devMode := coreCfg != nil && coreCfg.Env == "dev"

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(reqlog.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond.Error(w, req, logger, apierr.NotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respond.JSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "Method not allowed"})
	})

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Authentication
	authHandler := authapifeature.NewHandler(db, tm, mail, al, limiter, authapifeature.Options{
		SiteName:        appCfg.SiteName,
		OTPExpiry:       appCfg.OTPExpiry,
		AllowRoleSignup: appCfg.AllowRoleSignup,
		Jobs:            deps.jobs(),
	}, logger)
	r.Mount("/api/v1/auth", authapifeature.Routes(authHandler, mw))

	// Phone OTP login. The code is echoed in responses only in dev.
	phoneHandler := phoneauthfeature.NewHandler(db, tm, al, limiter, appCfg.OTPExpiry, devMode, logger)
	r.Mount("/api/v1/users/admin", phoneauthfeature.Routes(phoneHandler))

	// Community platform
	features := []communityMounter{
		communitiesfeature.NewHandler(db, al, appCfg.CommunityDefaultStatus, logger),
		joinrequestsfeature.NewHandler(db, al, logger),
		eventsfeature.NewHandler(db, al, logger),
		announcementsfeature.NewHandler(db, al, logger),
		amenitiesfeature.NewHandler(db, al, logger),
		marketplacefeature.NewHandler(db, al, logger),
		pulsesfeature.NewHandler(db, al, logger),
	}
	r.Route("/api/v1/community", func(cr chi.Router) {
		for _, f := range features {
			f.MountRoutes(cr, mw)
		}
	})

	return r, nil
}

// limiter returns the rate limiter built by Startup, or nil when Startup did
// not run (nil disables limiting).
func (d DBDeps) limiter() *ratelimit.AuthLimiter {
	if d.Services == nil {
		return nil
	}
	return d.Services.Limiter
}

// jobs returns the background runner built by Startup, or nil when Startup
// did not run (nil sends OTP emails inline).
func (d DBDeps) jobs() *workers.Runner {
	if d.Services == nil {
		return nil
	}
	return d.Services.Workers
}
