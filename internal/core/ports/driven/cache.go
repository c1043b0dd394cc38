package driven

import (
	"context"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// IntelligenceCache stores source payloads keyed by (sourceID, queryKey).
// Implementations must be safe for concurrent use. Writes are upserts and
// the last write wins.
type IntelligenceCache interface {
	// Get returns the entry, or nil and no error if it is absent or expired.
	// Expired entries may be evicted lazily by Get.
	Get(ctx context.Context, sourceID, queryKey string) (*domain.CacheEntry, error)

	// Put stores the payload for ttl.
	Put(ctx context.Context, sourceID, queryKey string, payload domain.RawPayload, ttl time.Duration) error

	// Delete removes one entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, sourceID, queryKey string) error

	// Purge removes every entry for a source and returns how many were removed.
	// An empty sourceID purges all sources.
	Purge(ctx context.Context, sourceID string) (int, error)
}
