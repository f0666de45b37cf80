package jobs

import (
	"context"
	"time"

	"github.com/natours/api/pkg/logger"
	"go.uber.org/zap"
)

const (
	JobResetTokenCleanup = "reset_token_cleanup"
	JobRateLimitSweep    = "rate_limit_sweep"
)

// TokenCleaner drops password reset tokens that expired before now.
type TokenCleaner interface {
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper forgets idle rate-limit clients.
type Sweeper interface {
	Sweep() int
}

func ResetTokenCleanup(users TokenCleaner, now func() time.Time) Func {
	return func(ctx context.Context) error {
		cleaned, err := users.ClearExpiredResetTokens(ctx, now())
		if err != nil {
			return err
		}
		if cleaned > 0 {
			logger.GetLogger().Info("Expired reset tokens cleared", zap.Int64("count", cleaned))
		}
		return nil
	}
}

func RateLimitSweep(limiter Sweeper) Func {
	return func(context.Context) error {
		if removed := limiter.Sweep(); removed > 0 {
			logger.GetLogger().Debug("Idle rate limit clients removed", zap.Int("count", removed))
		}
		return nil
	}
}
