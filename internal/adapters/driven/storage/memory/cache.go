package memory

import (
	"context"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.IntelligenceCache = (*Cache)(nil)

type cacheKey struct {
	sourceID string
	queryKey string
}

// Cache is an in-memory implementation of driven.IntelligenceCache.
// Expired entries are evicted lazily on Get.
type Cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]*domain.CacheEntry
	clock   clock.Clock
}

// NewCache creates a new in-memory cache. A nil clock uses the wall clock.
func NewCache(clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Cache{
		entries: make(map[cacheKey]*domain.CacheEntry),
		clock:   clk,
	}
}

// Get returns a copy of a live entry, or nil if it is absent or expired.
func (c *Cache) Get(_ context.Context, sourceID, queryKey string) (*domain.CacheEntry, error) {
	key := cacheKey{sourceID, queryKey}

	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if entry.Expired(c.clock.Now()) {
		c.mu.Lock()
		// Re-check; a concurrent Put may have replaced it.
		if cur, ok := c.entries[key]; ok && cur == entry {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, nil
	}

	cp := *entry
	return &cp, nil
}

// Put stores a payload for ttl, replacing any existing entry.
func (c *Cache) Put(_ context.Context, sourceID, queryKey string, payload domain.RawPayload, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	data := append([]byte(nil), payload.Data...)
	entry := domain.NewCacheEntry(sourceID, queryKey,
		domain.RawPayload{Data: data, Completeness: payload.Completeness}, ttl, c.clock.Now())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{sourceID, queryKey}] = entry
	return nil
}

// Delete removes one entry.
func (c *Cache) Delete(_ context.Context, sourceID, queryKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{sourceID, queryKey})
	return nil
}

// Purge removes every entry for a source, or all entries for "".
func (c *Cache) Purge(_ context.Context, sourceID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if sourceID == "" || key.sourceID == sourceID {
			delete(c.entries, key)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
