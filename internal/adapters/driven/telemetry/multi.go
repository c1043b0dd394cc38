package telemetry

import (
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Ensure Multi implements the interface.
var _ driven.Telemetry = Multi(nil)

// Multi forwards every event to each observer in order.
type Multi []driven.Telemetry

// Combine returns a single observer for the non-nil observers given.
// It returns nil when none are left.
func Combine(observers ...driven.Telemetry) driven.Telemetry {
	var m Multi
	for _, o := range observers {
		if o != nil {
			m = append(m, o)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	default:
		return m
	}
}

// OutcomeRecorded forwards the outcome.
func (m Multi) OutcomeRecorded(o domain.SourceOutcome) {
	for _, t := range m {
		t.OutcomeRecorded(o)
	}
}

// BundleAssembled forwards the bundle.
func (m Multi) BundleAssembled(b *domain.IntelligenceBundle) {
	for _, t := range m {
		t.BundleAssembled(b)
	}
}

// GatherFailed forwards the failure.
func (m Multi) GatherFailed(business string, err error, elapsed time.Duration) {
	for _, t := range m {
		t.GatherFailed(business, err, elapsed)
	}
}
