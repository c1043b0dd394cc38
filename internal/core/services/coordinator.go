package services

import (
	"context"
	"time"

	"github.com/juju/clock"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/logger"
)

// Coordinator fans one business query out to every registered source.
type Coordinator struct {
	registry  *Registry
	cache     driven.IntelligenceCache
	telemetry driven.Telemetry
	clock     clock.Clock
	deadline  time.Duration
	log       logger.Component
}

// NewCoordinator creates a coordinator. The cache and telemetry may be nil.
func NewCoordinator(
	registry *Registry,
	cache driven.IntelligenceCache,
	telemetry driven.Telemetry,
	deadline time.Duration,
	clk clock.Clock,
) *Coordinator {
	if clk == nil {
		clk = clock.WallClock
	}
	if deadline <= 0 {
		deadline = domain.DefaultGlobalDeadline
	}
	return &Coordinator{
		registry:  registry,
		cache:     cache,
		telemetry: telemetry,
		clock:     clk,
		deadline:  deadline,
		log:       logger.For("coordinator"),
	}
}

type settled struct {
	index   int
	outcome domain.SourceOutcome
}

// FanOut runs every source concurrently and returns one outcome per source
// in registration order.
//
// The global deadline is a soft join: sources without an outcome when it
// fires are recorded as timed-out and no longer awaited. Abandoned sources
// keep running until their own timeout and still write successful payloads
// to the cache; their outcomes are discarded.
func (c *Coordinator) FanOut(
	ctx context.Context,
	business, queryKey string,
	opts domain.GatherOptions,
) []domain.SourceOutcome {
	guards := c.registry.Guards()
	n := len(guards)

	deadline := c.deadline
	if opts.Deadline > 0 {
		deadline = opts.Deadline
	}

	start := c.clock.Now()
	c.log.Info("fan-out %s to %d sources (deadline %s, force refresh %t)", queryKey, n, deadline, opts.ForceRefresh)

	// Tasks outlive the join, so they must not die with the caller's context.
	taskCtx := context.WithoutCancel(ctx)
	results := make(chan settled, n)

	for i, g := range guards {
		go func() {
			results <- settled{index: i, outcome: c.runSource(taskCtx, g, business, queryKey, opts)}
		}()
	}

	timer := c.clock.NewTimer(deadline)
	defer timer.Stop()

	outcomes := make([]domain.SourceOutcome, n)
	done := make([]bool, n)

collect:
	for remaining := n; remaining > 0; {
		select {
		case r := <-results:
			outcomes[r.index] = r.outcome
			done[r.index] = true
			remaining--
			c.emit(opts, r.outcome)
		case <-timer.Chan():
			c.log.Warn("global deadline of %s reached with %d sources pending", deadline, remaining)
			break collect
		case <-ctx.Done():
			c.log.Warn("gather cancelled with %d sources pending: %v", remaining, ctx.Err())
			break collect
		}
	}

	elapsed := c.clock.Now().Sub(start)
	for i, g := range guards {
		if done[i] {
			continue
		}
		reason := "global deadline reached"
		if ctx.Err() != nil {
			reason = "gather cancelled: " + ctx.Err().Error()
		}
		o := domain.TimedOutOutcome(g.desc.ID, reason, elapsed, 0)
		outcomes[i] = o
		c.emit(opts, o)
	}

	return outcomes
}

// runSource serves one source from the cache or through its guard.
func (c *Coordinator) runSource(
	ctx context.Context,
	g *Guard,
	business, queryKey string,
	opts domain.GatherOptions,
) domain.SourceOutcome {
	desc := g.desc

	if c.cache != nil && !opts.ForceRefresh {
		entry, err := c.cache.Get(ctx, desc.ID, queryKey)
		switch {
		case err != nil:
			c.log.Warn("%s: cache read failed, treating as miss: %v", desc.ID, err)
		case entry != nil:
			return domain.CachedOutcome(entry, c.clock.Now())
		}
	}

	query := domain.NewSourceQuery(&desc, business, queryKey, opts.Params)
	outcome := g.Call(ctx, query)

	if outcome.Status == domain.StatusSuccess && c.cache != nil {
		payload := domain.RawPayload{Data: outcome.Payload, Completeness: outcome.Completeness}
		if err := c.cache.Put(ctx, desc.ID, queryKey, payload, desc.CacheTTL); err != nil {
			c.log.Warn("%s: cache write failed: %v", desc.ID, err)
		}
	}
	return outcome
}

// emit publishes a settled outcome. It never blocks.
func (c *Coordinator) emit(opts domain.GatherOptions, o domain.SourceOutcome) {
	c.log.Debug("%s: %s (%s)", o.SourceID, o.Status, o.Duration.Round(time.Millisecond))

	if opts.Events != nil {
		select {
		case opts.Events <- o:
		default:
			c.log.Debug("%s: event channel full, dropping outcome", o.SourceID)
		}
	}
	if c.telemetry != nil {
		c.telemetry.OutcomeRecorded(o)
	}
}
