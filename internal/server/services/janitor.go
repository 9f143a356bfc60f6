package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

// cleaner is any store that can drop rows past their expiry.
type cleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// Janitor periodically deletes expired refresh and reset tokens. Expired
// tokens are already unusable; the sweep only keeps the tables small.
type Janitor struct {
	auth     cleaner
	reset    cleaner
	interval time.Duration
	logger   logging.Logger
}

// NewJanitor constructs a Janitor over the two token stores.
func NewJanitor(auth, reset cleaner, interval time.Duration, logger logging.Logger) *Janitor {
	return &Janitor{auth: auth, reset: reset, interval: interval, logger: logger}
}

// Run sweeps on every tick until the context is cancelled. It blocks, so
// callers start it on its own goroutine.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (j *Janitor) sweep(ctx context.Context) {
	now := time.Now()

	refresh, err := j.auth.CleanupExpired(ctx, now)
	if err != nil {
		j.logger.Error(ctx, "refresh token cleanup failed", "error", err)
	}
	reset, err := j.reset.CleanupExpired(ctx, now)
	if err != nil {
		j.logger.Error(ctx, "reset token cleanup failed", "error", err)
	}

	if refresh > 0 || reset > 0 {
		j.logger.Info(ctx, "expired tokens removed", "refresh", refresh, "reset", reset)
	}
}
