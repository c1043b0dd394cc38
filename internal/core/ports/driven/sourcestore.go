package driven

import (
	"context"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// SourceStore provides the configured source descriptors.
// Descriptors are read once at startup and are not hot-reloaded.
type SourceStore interface {
	// List returns all configured sources in registration order.
	List(ctx context.Context) ([]domain.SourceDescriptor, error)
}
