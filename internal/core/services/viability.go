package services

import "github.com/synapse-labs/synapse/internal/core/domain"

// ViabilityEvaluator decides whether an outcome set can be trusted.
type ViabilityEvaluator struct {
	minViable int
	critical  []string
}

// NewViabilityEvaluator creates an evaluator requiring minViable usable
// outcomes and a usable outcome for every critical source.
func NewViabilityEvaluator(minViable int, descs []domain.SourceDescriptor) *ViabilityEvaluator {
	v := &ViabilityEvaluator{minViable: minViable}
	for _, d := range descs {
		if d.IsCritical {
			v.critical = append(v.critical, d.ID)
		}
	}
	return v
}

// MinViable returns the configured minimum.
func (v *ViabilityEvaluator) MinViable() int {
	return v.minViable
}

// Evaluate returns nil for a viable outcome set, otherwise an
// *domain.InsufficientIntelligenceError describing the shortfall and every
// missing critical source. The count and critical checks are independent.
func (v *ViabilityEvaluator) Evaluate(outcomes []domain.SourceOutcome) error {
	usable := make(map[string]bool, len(outcomes))
	for _, o := range outcomes {
		if o.IsUsable() {
			usable[o.SourceID] = true
		}
	}

	var missing []string
	for _, id := range v.critical {
		if !usable[id] {
			missing = append(missing, id)
		}
	}

	count := len(usable)
	shortfall := 0
	if count < v.minViable {
		shortfall = v.minViable - count
	}

	if shortfall == 0 && len(missing) == 0 {
		return nil
	}
	return &domain.InsufficientIntelligenceError{
		Usable:          count,
		Required:        v.minViable,
		Shortfall:       shortfall,
		MissingCritical: missing,
	}
}
