package sweep

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Expirer expires stale holds.
type Expirer interface {
	ExpireStaleHolds(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper periodically expires holds that never received an outcome.
type Sweeper struct {
	holds    Expirer
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// New creates a sweeper running every interval.
func New(holds Expirer, interval time.Duration) *Sweeper {
	return &Sweeper{holds: holds, interval: interval, now: time.Now, logger: zap.NewNop()}
}

// WithClock sets the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// WithLogger sets the logger.
func (s *Sweeper) WithLogger(l *zap.Logger) *Sweeper {
	s.logger = l
	return s
}

// Run sweeps on every tick until ctx is canceled. A failed sweep is logged and retried next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Hold sweeper started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Hold sweeper stopped")
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass and returns the number of holds expired.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.holds.ExpireStaleHolds(ctx, s.now())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.logger.Error("Hold sweep failed", zap.Error(err))
		}
		return 0
	}
	return n
}
