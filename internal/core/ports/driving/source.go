package driving

import (
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// SourceCatalogue exposes the configured sources.
type SourceCatalogue interface {
	// List returns all sources in registration order.
	List() []domain.SourceDescriptor

	// Get retrieves a source by ID.
	// Returns domain.ErrNotFound if the source is not configured.
	Get(id string) (*domain.SourceDescriptor, error)

	// BackoffUntil returns when the source's rate limit backoff after a 429
	// ends, or the zero time when it is not backing off.
	BackoffUntil(id string) time.Time
}
