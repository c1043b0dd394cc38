package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// Cache implements driven.IntelligenceCache on the cache_entries table.
// Timestamps are stored as Unix nanoseconds.
type Cache struct {
	store *Store
}

var _ driven.IntelligenceCache = (*Cache)(nil)

// Get returns a live entry, or nil if absent or expired.
// Expired rows are deleted on read.
func (c *Cache) Get(ctx context.Context, sourceID, queryKey string) (*domain.CacheEntry, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT source_id, query_key, payload, completeness, stored_at, expires_at
		FROM cache_entries WHERE source_id = ? AND query_key = ?
	`, sourceID, queryKey)

	entry, err := scanCacheEntry(row)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if now := c.store.clock.Now(); entry.Expired(now) {
		_, err := c.store.db.ExecContext(ctx,
			"DELETE FROM cache_entries WHERE source_id = ? AND query_key = ? AND expires_at <= ?",
			sourceID, queryKey, now.UnixNano())
		if err != nil {
			return nil, fmt.Errorf("evicting cache entry: %w", err)
		}
		return nil, nil
	}
	return entry, nil
}

// Put upserts a payload for ttl.
func (c *Cache) Put(ctx context.Context, sourceID, queryKey string, payload domain.RawPayload, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	entry := domain.NewCacheEntry(sourceID, queryKey, payload, ttl, c.store.clock.Now())

	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO cache_entries (source_id, query_key, payload, completeness, stored_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id, query_key) DO UPDATE SET
			payload = excluded.payload,
			completeness = excluded.completeness,
			stored_at = excluded.stored_at,
			expires_at = excluded.expires_at
	`, entry.SourceID, entry.QueryKey, []byte(entry.Payload), entry.Completeness,
		entry.StoredAt.UnixNano(), entry.ExpiresAt.UnixNano())
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// Delete removes one entry.
func (c *Cache) Delete(ctx context.Context, sourceID, queryKey string) error {
	_, err := c.store.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE source_id = ? AND query_key = ?", sourceID, queryKey)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// Purge removes every entry for a source, or all entries for "".
func (c *Cache) Purge(ctx context.Context, sourceID string) (int, error) {
	var (
		res sql.Result
		err error
	)
	if sourceID == "" {
		res, err = c.store.db.ExecContext(ctx, "DELETE FROM cache_entries")
	} else {
		res, err = c.store.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE source_id = ?", sourceID)
	}
	if err != nil {
		return 0, fmt.Errorf("purging cache: %w", err)
	}
	return rowsAffected(res)
}

// PruneExpired deletes every expired entry and returns how many were removed.
func (c *Cache) PruneExpired(ctx context.Context) (int, error) {
	res, err := c.store.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at <= ?", c.store.clock.Now().UnixNano())
	if err != nil {
		return 0, fmt.Errorf("pruning expired cache entries: %w", err)
	}
	return rowsAffected(res)
}

// scanCacheEntry scans a single cache entry row.
func scanCacheEntry(row *sql.Row) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	var payload []byte
	var storedAt, expiresAt int64

	if err := row.Scan(&e.SourceID, &e.QueryKey, &payload, &e.Completeness, &storedAt, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	e.Payload = payload
	e.StoredAt = time.Unix(0, storedAt).UTC()
	e.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return &e, nil
}

func rowsAffected(res sql.Result) (int, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading rows affected: %w", err)
	}
	return int(n), nil
}
