package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/juju/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

func testQuery(desc domain.SourceDescriptor) domain.SourceQuery {
	return domain.NewSourceQuery(&desc, "acme.com", "acme.com", nil)
}

// TestGuard_Success tests a successful call.
func TestGuard_Success(t *testing.T) {
	desc := testDesc("web", domain.TierHigh)
	g := NewGuard(desc, okAdapter(1.5), testSettings(1), clock.WallClock)

	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusSuccess, o.Status)
	assert.Equal(t, "web", o.SourceID)
	assert.Equal(t, 1, o.Attempts)
	assert.Equal(t, 1.0, o.Completeness)
	assert.Empty(t, o.ErrorKind)
	assert.JSONEq(t, `{"source":"web","business":"acme.com"}`, string(o.Payload))
}

// TestGuard_FailureClassification tests adapter errors map to failure kinds.
func TestGuard_FailureClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"auth", domain.ErrSourceAuth, domain.ErrorKindAuth},
		{"rate limit", &domain.RateLimitError{SourceID: "x", RetryAfter: time.Second}, domain.ErrorKindRateLimited},
		{"malformed", domain.ErrMalformedResponse, domain.ErrorKindMalformedResponse},
		{"deadline", context.DeadlineExceeded, domain.ErrorKindTimeout},
		{"transport", errors.New("connection reset"), domain.ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc := testDesc("src", domain.TierLow)
			g := NewGuard(desc, errAdapter(tt.err), testSettings(1), clock.WallClock)

			o := g.Call(context.Background(), testQuery(desc))

			assert.Equal(t, domain.StatusFailure, o.Status)
			assert.Equal(t, tt.want, o.ErrorKind)
			assert.Equal(t, tt.err.Error(), o.Error)
			assert.Equal(t, 1, o.Attempts)
			assert.Nil(t, o.Payload)
		})
	}
}

// TestGuard_EmptyPayload tests an empty payload is a malformed response.
func TestGuard_EmptyPayload(t *testing.T) {
	desc := testDesc("src", domain.TierLow)
	adapter := &mockAdapter{fetch: func(context.Context, domain.SourceQuery) (domain.RawPayload, error) {
		return domain.RawPayload{Data: json.RawMessage("null")}, nil
	}}
	g := NewGuard(desc, adapter, testSettings(1), clock.WallClock)

	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusFailure, o.Status)
	assert.Equal(t, domain.ErrorKindMalformedResponse, o.ErrorKind)
}

// TestGuard_Panic tests a panicking adapter becomes a failure.
func TestGuard_Panic(t *testing.T) {
	desc := testDesc("src", domain.TierLow)
	adapter := &mockAdapter{fetch: func(context.Context, domain.SourceQuery) (domain.RawPayload, error) {
		panic("boom")
	}}
	g := NewGuard(desc, adapter, testSettings(1), clock.WallClock)

	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusFailure, o.Status)
	assert.Equal(t, domain.ErrorKindUnknown, o.ErrorKind)
	assert.Contains(t, o.Error, "boom")
}

// TestGuard_Timeout tests the per-source timeout abandons the call.
func TestGuard_Timeout(t *testing.T) {
	desc := testDesc("slow", domain.TierLow)
	desc.Timeout = 30 * time.Millisecond

	cancelled := make(chan struct{})
	adapter := &mockAdapter{fetch: func(ctx context.Context, _ domain.SourceQuery) (domain.RawPayload, error) {
		<-ctx.Done()
		close(cancelled)
		return domain.RawPayload{}, ctx.Err()
	}}
	g := NewGuard(desc, adapter, testSettings(1), clock.WallClock)

	start := time.Now()
	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusTimedOut, o.Status)
	assert.Empty(t, o.ErrorKind)
	assert.Contains(t, o.Error, "source timeout after 30ms")
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("adapter context was not cancelled on timeout")
	}
}

// TestGuard_RetriesTransientFailure tests one retry on an unknown error.
func TestGuard_RetriesTransientFailure(t *testing.T) {
	desc := testDesc("flaky", domain.TierLow)
	var n atomic.Int32
	adapter := &mockAdapter{fetch: func(context.Context, domain.SourceQuery) (domain.RawPayload, error) {
		if n.Add(1) == 1 {
			return domain.RawPayload{}, errors.New("connection reset")
		}
		return domain.RawPayload{Data: json.RawMessage(`{"ok":true}`), Completeness: 1}, nil
	}}
	settings := testSettings(1)
	settings.RetryAttempts = 2
	settings.RetryDelay = time.Millisecond
	g := NewGuard(desc, adapter, settings, clock.WallClock)

	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusSuccess, o.Status)
	assert.Equal(t, 2, o.Attempts)
}

// TestGuard_RetryExhausted tests the last error is reported after retries.
func TestGuard_RetryExhausted(t *testing.T) {
	desc := testDesc("down", domain.TierLow)
	adapter := errAdapter(errors.New("503 service unavailable"))
	settings := testSettings(1)
	settings.RetryAttempts = 2
	settings.RetryDelay = time.Millisecond
	g := NewGuard(desc, adapter, settings, clock.WallClock)

	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusFailure, o.Status)
	assert.Equal(t, domain.ErrorKindUnknown, o.ErrorKind)
	assert.Equal(t, "503 service unavailable", o.Error)
	assert.Equal(t, 2, o.Attempts)
	assert.Equal(t, int32(2), adapter.calls.Load())
}

// TestGuard_NoRetryOnFatal tests auth and rate limit errors are not retried.
func TestGuard_NoRetryOnFatal(t *testing.T) {
	for _, err := range []error{domain.ErrSourceAuth, &domain.RateLimitError{SourceID: "x"}} {
		desc := testDesc("fatal", domain.TierLow)
		adapter := errAdapter(err)
		settings := testSettings(1)
		settings.RetryAttempts = 2
		settings.RetryDelay = time.Millisecond
		g := NewGuard(desc, adapter, settings, clock.WallClock)

		o := g.Call(context.Background(), testQuery(desc))

		assert.Equal(t, domain.StatusFailure, o.Status)
		assert.Equal(t, 1, o.Attempts, "error %v", err)
	}
}

// TestGuard_RateLimited tests an exhausted bucket fails without calling the adapter.
func TestGuard_RateLimited(t *testing.T) {
	desc := testDesc("limited", domain.TierLow)
	desc.RateLimit = domain.RateLimit{Calls: 1, Window: time.Hour}
	adapter := okAdapter(1)
	g := NewGuard(desc, adapter, testSettings(1), clock.WallClock)
	require.NotNil(t, g.limiter)

	first := g.Call(context.Background(), testQuery(desc))
	second := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.StatusSuccess, first.Status)
	assert.Equal(t, domain.StatusFailure, second.Status)
	assert.Equal(t, domain.ErrorKindRateLimited, second.ErrorKind)
	assert.Equal(t, 0, second.Attempts)
	assert.Equal(t, int32(1), adapter.calls.Load())
}

// TestGuard_RecordsRateLimitBackoff tests a 429 starts the limiter backoff.
func TestGuard_RecordsRateLimitBackoff(t *testing.T) {
	desc := testDesc("limited", domain.TierLow)
	desc.RateLimit = domain.RateLimit{Calls: 100, Window: time.Second}
	g := NewGuard(desc, errAdapter(&domain.RateLimitError{SourceID: "limited", RetryAfter: time.Minute}),
		testSettings(1), clock.WallClock)

	o := g.Call(context.Background(), testQuery(desc))

	assert.Equal(t, domain.ErrorKindRateLimited, o.ErrorKind)
	assert.True(t, g.limiter.BackoffUntil().After(time.Now()))
	assert.ErrorIs(t, g.limiter.Acquire(context.Background(), 0), domain.ErrRateLimited)
}

// TestGuard_CallerCancelled tests a cancelled caller yields a failure.
func TestGuard_CallerCancelled(t *testing.T) {
	desc := testDesc("src", domain.TierLow)
	g := NewGuard(desc, blockingAdapter(), testSettings(1), clock.WallClock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := g.Call(ctx, testQuery(desc))

	assert.Equal(t, domain.StatusFailure, o.Status)
	assert.Contains(t, o.Error, "context canceled")
}

// TestNewGuard_ClampsAttempts tests retry attempts stay within bounds.
func TestNewGuard_ClampsAttempts(t *testing.T) {
	desc := testDesc("src", domain.TierLow)
	settings := testSettings(1)

	settings.RetryAttempts = 0
	assert.Equal(t, 1, NewGuard(desc, okAdapter(1), settings, nil).attempts)

	settings.RetryAttempts = 9
	assert.Equal(t, domain.MaxRetryAttempts, NewGuard(desc, okAdapter(1), settings, nil).attempts)
}
