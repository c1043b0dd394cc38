package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
	"github.com/synapse-labs/synapse/internal/logger"
)

// Ensure IntelligenceService implements the interface.
var _ driving.IntelligenceGatherer = (*IntelligenceService)(nil)

// IntelligenceService gathers, evaluates and scores business intelligence.
type IntelligenceService struct {
	coordinator *Coordinator
	evaluator   *ViabilityEvaluator
	aggregator  *ConfidenceAggregator
	telemetry   driven.Telemetry
	clock       clock.Clock
	newID       func() string
	log         logger.Component
}

// NewIntelligenceService wires the fan-out pipeline for a registry.
// The cache and telemetry may be nil.
func NewIntelligenceService(
	registry *Registry,
	cache driven.IntelligenceCache,
	telemetry driven.Telemetry,
	settings domain.OrchestratorSettings,
	clk clock.Clock,
) *IntelligenceService {
	if clk == nil {
		clk = clock.WallClock
	}
	descs := registry.List()
	return &IntelligenceService{
		coordinator: NewCoordinator(registry, cache, telemetry, settings.GlobalDeadline, clk),
		evaluator:   NewViabilityEvaluator(settings.MinViableSources, descs),
		aggregator:  NewConfidenceAggregator(settings.Scoring, descs),
		telemetry:   telemetry,
		clock:       clk,
		newID:       uuid.NewString,
		log:         logger.For("intelligence"),
	}
}

// Gather fans out to every source for one business and returns a viable
// bundle or a *domain.InsufficientIntelligenceError carrying the
// non-viable bundle. There is no retry loop; retrying is the caller's call.
func (s *IntelligenceService) Gather(
	ctx context.Context,
	business string,
	opts domain.GatherOptions,
) (*domain.IntelligenceBundle, error) {
	start := s.clock.Now()

	normalized, err := domain.NormalizeBusinessURL(business)
	if err != nil {
		s.failed(business, err, start)
		return nil, err
	}
	opts.Params = domain.NormalizeParams(opts.Params)
	queryKey := domain.BuildQueryKey(normalized, opts.Params)

	logger.Section("Gather " + queryKey)
	outcomes := s.coordinator.FanOut(ctx, normalized, queryKey, opts)
	scores, overall := s.aggregator.Compute(outcomes)
	verdict := s.evaluator.Evaluate(outcomes)

	now := s.clock.Now()
	bundle := &domain.IntelligenceBundle{
		ID:                s.newID(),
		BusinessID:        normalized,
		QueryKey:          queryKey,
		Outcomes:          outcomes,
		SourceScores:      scores,
		OverallConfidence: overall,
		Viable:            verdict == nil,
		GeneratedAt:       now.UTC(),
		Elapsed:           now.Sub(start),
		ForceRefresh:      opts.ForceRefresh,
	}

	if s.telemetry != nil {
		s.telemetry.BundleAssembled(bundle)
	}

	if verdict != nil {
		var insufficient *domain.InsufficientIntelligenceError
		if errors.As(verdict, &insufficient) {
			insufficient.Bundle = bundle
		}
		s.failed(normalized, verdict, start)
		return nil, fmt.Errorf("gather %s: %w", normalized, verdict)
	}

	s.log.Info("%s: viable with %d/%d usable sources, confidence %.2f",
		normalized, bundle.UsableCount(), len(outcomes), overall)
	return bundle, nil
}

// MinViable returns the minimum viable source count in force.
func (s *IntelligenceService) MinViable() int {
	return s.evaluator.MinViable()
}

func (s *IntelligenceService) failed(business string, err error, start time.Time) {
	s.log.Warn("%s: %v", business, err)
	if s.telemetry != nil {
		s.telemetry.GatherFailed(business, err, s.clock.Now().Sub(start))
	}
}
