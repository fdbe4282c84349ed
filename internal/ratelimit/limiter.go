// Package ratelimit implements the global request pacer for the source host.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum delay between the start of consecutive
// requests. The corpus is served by a single host, so one limiter paces
// every fetch in the run.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a Limiter with the given inter-request floor. A zero or
// negative delay disables pacing.
func New(minDelay time.Duration) *Limiter {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &Limiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the pacing delay has elapsed, respecting the context.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	return nil
}
