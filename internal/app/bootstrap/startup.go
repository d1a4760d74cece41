// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/communityhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/tasks"
	"github.com/dalemusser/communityhub/internal/app/system/timeouts"
	"github.com/dalemusser/communityhub/internal/app/system/workers"
	"github.com/dalemusser/communityhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// store timeouts, promotes the configured SuperAdmin, builds the credential
// rate limiter and starts the maintenance jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Ping:   appCfg.TimeoutPing,
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
		Long:   appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("store timeouts configured",
		zap.Duration("ping", cur.Ping),
		zap.Duration("short", cur.Short),
		zap.Duration("medium", cur.Medium),
		zap.Duration("long", cur.Long))

	if appCfg.SuperAdminEmail != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, logger); err != nil {
			return err
		}
	}

	if deps.Services == nil {
		return errors.New("startup: services not allocated")
	}
	deps.Services.Limiter = ratelimit.NewAuthLimiter(appCfg.AuthRateLimit, appCfg.AuthRateWindow)

	deps.Services.Workers = workers.NewRunner(logger,
		tasks.ExpiredOTPCleanupJob(userstore.New(deps.MongoDatabase), logger, appCfg.OTPCleanupInterval),
		tasks.ExpiredSessionCleanupJob(sessions.New(deps.MongoDatabase), logger, appCfg.SessionCleanupInterval),
	)
	deps.Services.Workers.Start()

	return nil
}

// ensureSuperAdmin promotes the registered user with email to SuperAdmin.
// A missing user is logged and skipped: the account must register first.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)

	u, err := users.GetByEmail(ctx, email)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Warn("superadmin user not found; register the account and restart",
			zap.String("email", email))
		return nil
	}
	if err != nil {
		return fmt.Errorf("superadmin lookup: %w", err)
	}

	if u.Role == models.RoleSuperAdmin && u.IsActive() {
		return nil
	}
	if err := users.Promote(ctx, u.ID, models.RoleSuperAdmin); err != nil {
		return fmt.Errorf("superadmin promote: %w", err)
	}
	logger.Info("promoted user to superadmin",
		zap.String("email", email),
		zap.String("previous_role", u.Role))
	return nil
}
