package driving

import "context"

// CacheAdmin manages cached source payloads.
type CacheAdmin interface {
	// Invalidate removes the cached payload of one source for one business.
	// An empty sourceID invalidates the business for every source.
	Invalidate(ctx context.Context, sourceID, business string, params map[string]string) (int, error)

	// Purge removes every cached payload of a source.
	// An empty sourceID purges the whole cache.
	Purge(ctx context.Context, sourceID string) (int, error)
}
