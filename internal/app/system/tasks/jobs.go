// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"github.com/dalemusser/communityhub/internal/app/store/sessions"
	userstore "github.com/dalemusser/communityhub/internal/app/store/users"
	"go.uber.org/zap"
)

// Job is a named piece of periodic maintenance.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// ExpiredOTPCleanupJob clears one-time codes that can no longer be used.
func ExpiredOTPCleanupJob(users *userstore.Store, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "expired-otp-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := users.ClearExpiredOTPs(ctx, time.Now())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Info("cleared expired OTPs", zap.Int64("count", count))
			}
			return nil
		},
	}
}

// ExpiredSessionCleanupJob removes refresh sessions past their expiry.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func ExpiredSessionCleanupJob(sessStore *sessions.Store, logger *zap.Logger, interval time.Duration) Job {
	return Job{
		Name:     "expired-session-cleanup",
		Interval: interval,
		Run: func(ctx context.Context) error {
			count, err := sessStore.DeleteExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("removed expired sessions", zap.Int64("count", count))
			}
			return nil
		},
	}
}
