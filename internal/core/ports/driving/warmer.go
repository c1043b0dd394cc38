package driving

import (
	"context"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// Warmer keeps the cache warm for tracked businesses.
type Warmer interface {
	// Start begins warming tracked businesses.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the warmer and waits for running warms.
	Stop() error

	// Track adds or updates a business to warm.
	Track(ctx context.Context, business string, params map[string]string) error

	// Targets returns the tracked businesses.
	Targets(ctx context.Context) ([]domain.WarmTarget, error)
}
