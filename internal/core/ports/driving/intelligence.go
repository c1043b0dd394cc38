package driving

import (
	"context"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// IntelligenceGatherer is the public entry point for gathering intelligence.
type IntelligenceGatherer interface {
	// Gather fans out to every configured source for one business and
	// returns a viable, scored bundle. When the viability policy is not met
	// it returns a *domain.InsufficientIntelligenceError carrying the
	// non-viable bundle. Individual source failures never surface as errors.
	Gather(ctx context.Context, business string, opts domain.GatherOptions) (*domain.IntelligenceBundle, error)
}
