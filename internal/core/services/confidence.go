package services

import (
	"math"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// ConfidenceAggregator scores outcomes. Scores depend only on the outcome
// set and the static descriptors, so equal inputs give equal results.
type ConfidenceAggregator struct {
	policy domain.ScoringPolicy
	tiers  map[string]domain.PriorityTier
	ttls   map[string]time.Duration
}

// NewConfidenceAggregator creates an aggregator for the given sources.
func NewConfidenceAggregator(policy domain.ScoringPolicy, descs []domain.SourceDescriptor) *ConfidenceAggregator {
	a := &ConfidenceAggregator{
		policy: policy,
		tiers:  make(map[string]domain.PriorityTier, len(descs)),
		ttls:   make(map[string]time.Duration, len(descs)),
	}
	for _, d := range descs {
		a.tiers[d.ID] = d.Tier
		a.ttls[d.ID] = d.CacheTTL
	}
	return a
}

// Score returns the 0-100 score of one outcome.
//
// Fresh successes score FreshScore. Cache hits score CachedCeiling at age
// zero, decaying linearly to CacheFloorRatio of it at age >= ttl. Both are
// scaled by completeness. Failures and timeouts score zero.
func (a *ConfidenceAggregator) Score(o domain.SourceOutcome) float64 {
	p := a.policy
	cf := (1 - p.CompletenessWeight) + p.CompletenessWeight*domain.ClampUnit(o.Completeness)

	switch o.Status {
	case domain.StatusSuccess:
		return p.FreshScore * cf
	case domain.StatusCached:
		ratio := 1.0
		if ttl := a.ttls[o.SourceID]; ttl > 0 && o.CacheAge != nil {
			ratio = math.Min(float64(*o.CacheAge)/float64(ttl), 1)
		}
		return p.CachedCeiling * (1 - (1-p.CacheFloorRatio)*ratio) * cf
	default:
		return 0
	}
}

// Weight returns the tier weight of a source. Unknown sources weigh as low.
func (a *ConfidenceAggregator) Weight(sourceID string) float64 {
	if tier, ok := a.tiers[sourceID]; ok && tier.IsValid() {
		return tier.Weight()
	}
	return domain.TierLow.Weight()
}

// Compute returns per-source scores and the tier-weighted overall
// confidence across every outcome, both rounded to 2 decimals.
func (a *ConfidenceAggregator) Compute(outcomes []domain.SourceOutcome) (map[string]float64, float64) {
	scores := make(map[string]float64, len(outcomes))
	var weighted, total float64

	for _, o := range outcomes {
		s := a.Score(o)
		w := a.Weight(o.SourceID)
		scores[o.SourceID] = round2(s)
		weighted += w * s
		total += w
	}

	if total == 0 {
		return scores, 0
	}
	return scores, round2(weighted / total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
