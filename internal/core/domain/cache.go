package domain

import (
	"encoding/json"
	"time"
)

// CacheEntry is a cached source payload keyed by (SourceID, QueryKey).
type CacheEntry struct {
	SourceID     string
	QueryKey     string
	Payload      json.RawMessage
	Completeness float64
	StoredAt     time.Time
	ExpiresAt    time.Time
}

// NewCacheEntry builds an entry stored at now that lives for ttl.
func NewCacheEntry(sourceID, queryKey string, payload RawPayload, ttl time.Duration, now time.Time) *CacheEntry {
	return &CacheEntry{
		SourceID:     sourceID,
		QueryKey:     queryKey,
		Payload:      payload.Data,
		Completeness: payload.Completeness,
		StoredAt:     now,
		ExpiresAt:    now.Add(ttl),
	}
}

// Expired reports whether the entry is no longer servable at now.
// An entry expires exactly at ExpiresAt.
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Age returns how long ago the entry was stored, never negative.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	if age := now.Sub(e.StoredAt); age > 0 {
		return age
	}
	return 0
}

// TTL returns the entry's original lifetime.
func (e *CacheEntry) TTL() time.Duration {
	return e.ExpiresAt.Sub(e.StoredAt)
}
