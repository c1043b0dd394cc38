package driven

import (
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// Telemetry observes gathering as it happens. Implementations must be safe
// for concurrent use and must not block; the core behaves identically
// without them.
type Telemetry interface {
	// OutcomeRecorded is called once per source as its outcome settles.
	OutcomeRecorded(outcome domain.SourceOutcome)

	// BundleAssembled is called once per gather with the scored bundle,
	// viable or not.
	BundleAssembled(bundle *domain.IntelligenceBundle)

	// GatherFailed is called when a gather ends in an error.
	GatherFailed(business string, err error, elapsed time.Duration)
}
