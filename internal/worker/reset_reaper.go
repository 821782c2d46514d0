package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront/internal/observability"
)

// Sweeper deletes expired records and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// ResetTokenReaper periodically removes expired password reset tokens. Expiry
// is enforced on lookup, so the reaper only bounds table growth.
type ResetTokenReaper struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewResetTokenReaper builds a reaper ticking every interval.
func NewResetTokenReaper(sweeper Sweeper, interval time.Duration, logger *zap.Logger, metrics *observability.Metrics) *ResetTokenReaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResetTokenReaper{sweeper: sweeper, interval: interval, logger: logger, metrics: metrics}
}

// Run sweeps until ctx is cancelled.
func (r *ResetTokenReaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (r *ResetTokenReaper) RunOnce(ctx context.Context) int64 {
	removed, err := r.sweeper.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Warn("reset token sweep failed", zap.Error(err))
		}
		return 0
	}
	if removed > 0 {
		r.metrics.RecordResetToken("reaped", int(removed))
		r.logger.Debug("expired reset tokens removed", zap.Int64("count", removed))
	}
	return removed
}
