package domain

import "time"

// IntelligenceBundle is the merged result of one fan-out. It owns exactly
// the outcomes of that fan-out and is immutable once built.
type IntelligenceBundle struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	QueryKey   string `json:"query_key"`

	// Outcomes are in source registration order.
	Outcomes []SourceOutcome `json:"outcomes"`

	// SourceScores maps source ID to its 0-100 score.
	SourceScores map[string]float64 `json:"source_scores"`

	// OverallConfidence is the tier-weighted 0-100 score, rounded to 2 decimals.
	OverallConfidence float64 `json:"overall_confidence"`

	Viable       bool          `json:"viable"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Elapsed      time.Duration `json:"elapsed_ns"`
	ForceRefresh bool          `json:"force_refresh"`
}

// Outcome returns the outcome for a source.
func (b *IntelligenceBundle) Outcome(sourceID string) (SourceOutcome, bool) {
	for _, o := range b.Outcomes {
		if o.SourceID == sourceID {
			return o, true
		}
	}
	return SourceOutcome{}, false
}

// StatusCounts counts outcomes by status.
func (b *IntelligenceBundle) StatusCounts() map[OutcomeStatus]int {
	counts := make(map[OutcomeStatus]int, 4)
	for _, o := range b.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// UsableCount returns the number of success or cached outcomes.
func (b *IntelligenceBundle) UsableCount() int {
	return CountUsable(b.Outcomes)
}

// CountUsable returns the number of success or cached outcomes.
func CountUsable(outcomes []SourceOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.IsUsable() {
			n++
		}
	}
	return n
}

// GatherOptions are per-invocation options for gathering intelligence.
type GatherOptions struct {
	// ForceRefresh skips the cache read for every source.
	ForceRefresh bool

	// Deadline overrides the global fan-out deadline when positive.
	Deadline time.Duration

	// Params are caller query params passed to every source.
	Params map[string]string

	// Events receives each outcome as it settles. Sends never block; a
	// full channel drops the event. The channel is not closed.
	Events chan<- SourceOutcome
}
