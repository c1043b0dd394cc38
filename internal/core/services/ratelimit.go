package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/time/rate"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// DefaultRateLimitBackoff is used when a 429 carries no Retry-After hint.
const DefaultRateLimitBackoff = 60 * time.Second

// RateLimiter is a per-source token bucket shared across invocations,
// with a backoff window set when the API reports 429.
// A nil *RateLimiter allows every call.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	clock   clock.Clock
}

// NewRateLimiter creates a limiter refilled at Calls/Window with burst Calls.
// Returns nil for an unlimited source.
func NewRateLimiter(limit domain.RateLimit, clk clock.Clock) *RateLimiter {
	if limit.IsUnlimited() {
		return nil
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(limit.PerSecond()), limit.Calls),
		clock:   clk,
	}
}

// Acquire takes one token, waiting at most maxWait for it.
// Returns an error wrapping domain.ErrRateLimited when no token is
// available within maxWait or the source is backing off after a 429.
// A zero maxWait never blocks.
func (r *RateLimiter) Acquire(ctx context.Context, maxWait time.Duration) error {
	if r == nil {
		return nil
	}

	now := r.clock.Now()

	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if now.Before(retryAt) {
		return fmt.Errorf("%w: backing off for %s", domain.ErrRateLimited, retryAt.Sub(now).Round(time.Millisecond))
	}

	res := r.limiter.ReserveN(now, 1)
	if !res.OK() {
		return fmt.Errorf("%w: burst exceeded", domain.ErrRateLimited)
	}

	delay := res.DelayFrom(now)
	if delay == 0 {
		return nil
	}
	if delay > maxWait {
		res.CancelAt(now)
		return fmt.Errorf("%w: next token in %s", domain.ErrRateLimited, delay.Round(time.Millisecond))
	}

	select {
	case <-r.clock.After(delay):
		return nil
	case <-ctx.Done():
		res.CancelAt(r.clock.Now())
		return ctx.Err()
	}
}

// RecordRateLimitError sets a backoff period after a 429 response.
// A zero retryAfter uses DefaultRateLimitBackoff.
func (r *RateLimiter) RecordRateLimitError(retryAfter time.Duration) {
	if r == nil {
		return
	}
	if retryAfter <= 0 {
		retryAfter = DefaultRateLimitBackoff
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if until := r.clock.Now().Add(retryAfter); until.After(r.retryAt) {
		r.retryAt = until
	}
}

// BackoffUntil returns the end of the current 429 backoff, zero if none.
func (r *RateLimiter) BackoffUntil() time.Time {
	if r == nil {
		return time.Time{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.retryAt
}
