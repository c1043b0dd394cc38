package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/juju/clock"
	"github.com/juju/retry"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/logger"
)

var errAdapterPanic = errors.New("adapter panicked")

// Guard wraps one source adapter with its rate limiter, timeout and bounded
// retry policy. Every call ends in a SourceOutcome; adapter errors never
// escape. One Guard exists per source and is shared across invocations.
type Guard struct {
	desc    domain.SourceDescriptor
	adapter driven.SourceAdapter
	limiter *RateLimiter
	clock   clock.Clock
	log     logger.Component

	attempts      int
	retryDelay    time.Duration
	rateLimitWait time.Duration
}

// NewGuard creates a guard for a source.
func NewGuard(
	desc domain.SourceDescriptor,
	adapter driven.SourceAdapter,
	settings domain.OrchestratorSettings,
	clk clock.Clock,
) *Guard {
	if clk == nil {
		clk = clock.WallClock
	}
	attempts := settings.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	if attempts > domain.MaxRetryAttempts {
		attempts = domain.MaxRetryAttempts
	}
	return &Guard{
		desc:          desc,
		adapter:       adapter,
		limiter:       NewRateLimiter(desc.RateLimit, clk),
		clock:         clk,
		log:           logger.For("guard"),
		attempts:      attempts,
		retryDelay:    settings.RetryDelay,
		rateLimitWait: settings.RateLimitWait,
	}
}

// Descriptor returns the guarded source's descriptor.
func (g *Guard) Descriptor() domain.SourceDescriptor {
	return g.desc
}

type fetchResult struct {
	payload domain.RawPayload
	err     error
}

// Call performs one guarded fetch.
//
// A call that cannot get a rate limit token within the configured wait
// returns a rate-limited failure immediately. A call still running when
// the source timeout fires is abandoned: its context is cancelled and it
// is not awaited.
func (g *Guard) Call(ctx context.Context, query domain.SourceQuery) domain.SourceOutcome {
	start := g.clock.Now()
	id := g.desc.ID

	if err := g.limiter.Acquire(ctx, g.rateLimitWait); err != nil {
		g.log.Debug("%s: %v", id, err)
		return domain.FailureOutcome(id, domain.ClassifyError(err), err, g.since(start), 0)
	}

	callCtx, cancel := context.WithCancel(ctx)
	var attempts atomic.Int32
	done := make(chan fetchResult, 1)

	go func() {
		payload, err := g.attempt(callCtx, query, &attempts)
		done <- fetchResult{payload: payload, err: err}
	}()

	timeout := g.clock.After(g.desc.Timeout)

	select {
	case res := <-done:
		cancel()
		n := int(attempts.Load())
		if res.err != nil {
			kind := domain.ClassifyError(res.err)
			g.log.Debug("%s: %s failure after %d attempt(s): %v", id, kind, n, res.err)
			return domain.FailureOutcome(id, kind, res.err, g.since(start), n)
		}
		return domain.SuccessOutcome(id, res.payload, g.since(start), n)

	case <-timeout:
		cancel()
		g.log.Debug("%s: timed out after %s", id, g.desc.Timeout)
		return domain.TimedOutOutcome(id, fmt.Sprintf("source timeout after %s", g.desc.Timeout), g.since(start), int(attempts.Load()))

	case <-ctx.Done():
		cancel()
		err := ctx.Err()
		return domain.FailureOutcome(id, domain.ClassifyError(err), err, g.since(start), int(attempts.Load()))
	}
}

// attempt runs the adapter under the retry policy. Only timeout and unknown
// failures are retried.
func (g *Guard) attempt(ctx context.Context, query domain.SourceQuery, attempts *atomic.Int32) (domain.RawPayload, error) {
	var (
		payload domain.RawPayload
		lastErr error
	)

	call := func() error {
		attempts.Add(1)
		p, err := g.fetch(ctx, query)
		if err != nil {
			lastErr = err
			var rl *domain.RateLimitError
			if errors.As(err, &rl) {
				g.limiter.RecordRateLimitError(rl.RetryAfter)
			}
			return err
		}
		payload = p
		return nil
	}

	if g.attempts <= 1 || g.retryDelay <= 0 {
		err := call()
		return payload, err
	}

	err := retry.Call(retry.CallArgs{
		Func: call,
		IsFatalError: func(err error) bool {
			return !domain.ClassifyError(err).IsRetryable()
		},
		NotifyFunc: func(err error, attempt int) {
			g.log.Debug("%s: attempt %d failed: %v", g.desc.ID, attempt, err)
		},
		Attempts: g.attempts,
		Delay:    g.retryDelay,
		Clock:    g.clock,
		Stop:     ctx.Done(),
	})
	if err != nil {
		if lastErr != nil {
			return payload, lastErr
		}
		return payload, err
	}
	return payload, nil
}

// fetch calls the adapter, converting panics and empty payloads to errors.
func (g *Guard) fetch(ctx context.Context, query domain.SourceQuery) (payload domain.RawPayload, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errAdapterPanic, r)
		}
	}()

	payload, err = g.adapter.Fetch(ctx, query)
	if err != nil {
		return domain.RawPayload{}, err
	}
	if payload.IsEmpty() {
		return domain.RawPayload{}, fmt.Errorf("%w: empty payload", domain.ErrMalformedResponse)
	}
	payload.Completeness = domain.ClampUnit(payload.Completeness)
	return payload, nil
}

func (g *Guard) since(start time.Time) time.Duration {
	return g.clock.Now().Sub(start)
}
