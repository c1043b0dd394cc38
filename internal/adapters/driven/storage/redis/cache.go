// Package redis provides a Redis-backed IntelligenceCache so several
// orchestrator processes can share warm payloads.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/juju/clock"
	goredis "github.com/redis/go-redis/v9"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.IntelligenceCache = (*Cache)(nil)

// scanBatch is the SCAN COUNT hint used by Purge.
const scanBatch = 500

// record is the stored value. Redis expiry removes it at ExpiresAt.
type record struct {
	Payload      json.RawMessage `json:"payload"`
	Completeness float64         `json:"completeness"`
	StoredAt     int64           `json:"stored_at"`
	ExpiresAt    int64           `json:"expires_at"`
}

// Cache implements driven.IntelligenceCache on Redis string keys of the
// form <prefix>:cache:<source>:<query key>.
type Cache struct {
	client goredis.UniversalClient
	prefix string
	clock  clock.Clock
}

// NewCache wraps an existing client.
func NewCache(client goredis.UniversalClient, prefix string, clk clock.Clock) *Cache {
	if clk == nil {
		clk = clock.WallClock
	}
	if prefix == "" {
		prefix = "synapse"
	}
	return &Cache{client: client, prefix: prefix, clock: clk}
}

// Dial connects to the configured Redis and verifies it answers.
func Dial(ctx context.Context, settings domain.CacheSettings) (*Cache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPassword,
		DB:       settings.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping redis at %s: %w", domain.ErrCacheUnavailable, settings.RedisAddr, err)
	}
	return NewCache(client, settings.RedisPrefix, nil), nil
}

// Close closes the underlying client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Get returns a live entry, or nil if absent or expired.
func (c *Cache) Get(ctx context.Context, sourceID, queryKey string) (*domain.CacheEntry, error) {
	data, err := c.client.Get(ctx, c.key(sourceID, queryKey)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s/%s: %w", domain.ErrCacheUnavailable, sourceID, queryKey, err)
	}

	entry, err := decode(sourceID, queryKey, data)
	if err != nil {
		return nil, err
	}
	if entry.Expired(c.clock.Now()) {
		return nil, nil
	}
	return entry, nil
}

// Put stores a payload with a Redis expiry of ttl.
func (c *Cache) Put(ctx context.Context, sourceID, queryKey string, payload domain.RawPayload, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	entry := domain.NewCacheEntry(sourceID, queryKey, payload, ttl, c.clock.Now())
	data, err := encode(entry)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, c.key(sourceID, queryKey), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s/%s: %w", domain.ErrCacheUnavailable, sourceID, queryKey, err)
	}
	return nil
}

// Delete removes one entry.
func (c *Cache) Delete(ctx context.Context, sourceID, queryKey string) error {
	if err := c.client.Del(ctx, c.key(sourceID, queryKey)).Err(); err != nil {
		return fmt.Errorf("%w: del %s/%s: %w", domain.ErrCacheUnavailable, sourceID, queryKey, err)
	}
	return nil
}

// Purge removes every entry for a source, or all entries for "", using SCAN
// so large caches do not block the server.
func (c *Cache) Purge(ctx context.Context, sourceID string) (int, error) {
	pattern := c.prefix + ":cache:*"
	if sourceID != "" {
		pattern = c.prefix + ":cache:" + escapeGlob(sourceID) + ":*"
	}

	removed := 0
	iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		if err != nil {
			return fmt.Errorf("%w: purge: %w", domain.ErrCacheUnavailable, err)
		}
		removed += int(n)
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: scan %s: %w", domain.ErrCacheUnavailable, pattern, err)
	}
	return removed, flush()
}

func (c *Cache) key(sourceID, queryKey string) string {
	return c.prefix + ":cache:" + sourceID + ":" + queryKey
}

func encode(e *domain.CacheEntry) ([]byte, error) {
	data, err := json.Marshal(record{
		Payload:      e.Payload,
		Completeness: e.Completeness,
		StoredAt:     e.StoredAt.UnixNano(),
		ExpiresAt:    e.ExpiresAt.UnixNano(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return data, nil
}

func decode(sourceID, queryKey string, data []byte) (*domain.CacheEntry, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: decode %s/%s: %w", domain.ErrCacheUnavailable, sourceID, queryKey, err)
	}
	return &domain.CacheEntry{
		SourceID:     sourceID,
		QueryKey:     queryKey,
		Payload:      r.Payload,
		Completeness: r.Completeness,
		StoredAt:     time.Unix(0, r.StoredAt).UTC(),
		ExpiresAt:    time.Unix(0, r.ExpiresAt).UTC(),
	}, nil
}

// escapeGlob escapes the characters SCAN MATCH treats specially.
func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
