package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/juju/clock"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
	"github.com/synapse-labs/synapse/internal/logger"
)

// Ensure Warmer implements the interface.
var _ driving.Warmer = (*Warmer)(nil)

// warmHistoryKeep is how many results are kept per business.
const warmHistoryKeep = 100

// Warmer periodically gathers intelligence for tracked businesses so that
// interactive calls hit a warm cache.
type Warmer struct {
	config   domain.WarmerConfig
	store    driven.WarmStore
	gatherer driving.IntelligenceGatherer
	clock    clock.Clock
	log      logger.Component

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	wg      sync.WaitGroup
}

// NewWarmer creates a warmer with configuration.
func NewWarmer(
	config domain.WarmerConfig,
	store driven.WarmStore,
	gatherer driving.IntelligenceGatherer,
	clk clock.Clock,
) *Warmer {
	if clk == nil {
		clk = clock.WallClock
	}
	if config.Tick <= 0 {
		config.Tick = domain.DefaultWarmerConfig().Tick
	}
	if config.Interval <= 0 {
		config.Interval = domain.DefaultWarmerConfig().Interval
	}
	return &Warmer{
		config:   config,
		store:    store,
		gatherer: gatherer,
		clock:    clk,
		log:      logger.For("warmer"),
		active:   make(map[string]bool),
	}
}

// Start begins the warm loop. This method blocks until Stop is called or
// the context is cancelled.
func (w *Warmer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()
	defer close(doneCh)

	for _, business := range w.config.Businesses {
		if err := w.Track(ctx, business, nil); err != nil {
			w.log.Warn("failed to track %s: %v", business, err)
		}
	}

	return w.run(ctx, stopCh)
}

// Stop gracefully shuts down the warmer and waits for running warms.
// The loop is waited for first since only it starts new warms.
func (w *Warmer) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
	w.wg.Wait()
	return nil
}

// Track adds a business or updates its params and interval.
func (w *Warmer) Track(ctx context.Context, business string, params map[string]string) error {
	normalized, err := domain.NormalizeBusinessURL(business)
	if err != nil {
		return err
	}

	target, err := w.store.GetTarget(ctx, normalized)
	if err != nil {
		return fmt.Errorf("get warm target: %w", err)
	}

	if target == nil {
		target = &domain.WarmTarget{
			Business: normalized,
			Interval: w.config.Interval,
		}
	} else if target.Interval != w.config.Interval {
		target.Interval = w.config.Interval
		target.NextRun = w.clock.Now().Add(w.config.Interval)
	}
	if params != nil {
		target.Params = params
	}

	return w.store.SaveTarget(ctx, target)
}

// Targets returns the tracked businesses.
func (w *Warmer) Targets(ctx context.Context) ([]domain.WarmTarget, error) {
	return w.store.ListTargets(ctx)
}

func (w *Warmer) run(ctx context.Context, stopCh <-chan struct{}) error {
	w.checkAndRunDue(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-w.clock.After(w.config.Tick):
			w.checkAndRunDue(ctx)
		}
	}
}

// checkAndRunDue warms every target that is due and not already running.
func (w *Warmer) checkAndRunDue(ctx context.Context) {
	targets, err := w.store.ListTargets(ctx)
	if err != nil {
		w.log.Warn("failed to list targets: %v", err)
		return
	}

	now := w.clock.Now()
	for i := range targets {
		target := targets[i]
		if !target.Due(now) {
			continue
		}

		w.mu.Lock()
		if w.active[target.Business] {
			w.mu.Unlock()
			continue
		}
		w.active[target.Business] = true
		w.mu.Unlock()

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			defer w.release(target.Business)
			w.warm(ctx, &target)
		}()
	}
}

func (w *Warmer) release(business string) {
	w.mu.Lock()
	delete(w.active, business)
	w.mu.Unlock()
}

// warm refreshes every source for one target and records the result.
func (w *Warmer) warm(ctx context.Context, target *domain.WarmTarget) {
	result := &domain.WarmResult{
		Business:  target.Business,
		StartedAt: w.clock.Now(),
	}

	bundle, err := w.gatherer.Gather(ctx, target.Business, domain.GatherOptions{
		ForceRefresh: true,
		Params:       target.Params,
	})
	if insufficient, ok := domain.IsInsufficientIntelligence(err); ok {
		bundle = insufficient.Bundle
	}

	result.EndedAt = w.clock.Now()
	if bundle != nil {
		result.Usable = bundle.UsableCount()
		target.LastConfidence = bundle.OverallConfidence
	}
	if err != nil {
		result.Error = err.Error()
		target.LastError = err.Error()
		w.log.Warn("%s: warm failed: %v", target.Business, err)
	} else {
		result.Success = true
		target.LastError = ""
		w.log.Info("%s: warmed %d sources", target.Business, result.Usable)
	}

	target.LastRun = result.StartedAt
	target.NextRun = result.EndedAt.Add(target.Interval)

	if err := w.store.SaveTarget(ctx, target); err != nil {
		w.log.Warn("failed to save target %s: %v", target.Business, err)
	}
	if err := w.store.RecordResult(ctx, result); err != nil {
		w.log.Warn("failed to record result for %s: %v", target.Business, err)
	}
	if err := w.store.PruneHistory(ctx, warmHistoryKeep); err != nil {
		w.log.Warn("failed to prune history: %v", err)
	}
}

