package services

import (
	"context"
	"fmt"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
)

// Ensure CacheAdminService implements the interface.
var _ driving.CacheAdmin = (*CacheAdminService)(nil)

// CacheAdminService manages cached source payloads.
type CacheAdminService struct {
	cache     driven.IntelligenceCache
	catalogue driving.SourceCatalogue
}

// NewCacheAdminService creates a new cache admin service.
func NewCacheAdminService(cache driven.IntelligenceCache, catalogue driving.SourceCatalogue) *CacheAdminService {
	return &CacheAdminService{cache: cache, catalogue: catalogue}
}

// Invalidate removes the cached payload of one source for one business and
// returns the number of sources invalidated.
func (s *CacheAdminService) Invalidate(
	ctx context.Context,
	sourceID, business string,
	params map[string]string,
) (int, error) {
	normalized, err := domain.NormalizeBusinessURL(business)
	if err != nil {
		return 0, err
	}
	queryKey := domain.BuildQueryKey(normalized, domain.NormalizeParams(params))

	ids, err := s.sourceIDs(sourceID)
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := s.cache.Delete(ctx, id, queryKey); err != nil {
			return 0, fmt.Errorf("invalidate %s for %s: %w", id, queryKey, err)
		}
	}
	return len(ids), nil
}

// Purge removes every cached payload of a source.
func (s *CacheAdminService) Purge(ctx context.Context, sourceID string) (int, error) {
	if sourceID != "" {
		if _, err := s.catalogue.Get(sourceID); err != nil {
			return 0, err
		}
	}
	n, err := s.cache.Purge(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("purge cache: %w", err)
	}
	return n, nil
}

func (s *CacheAdminService) sourceIDs(sourceID string) ([]string, error) {
	if sourceID != "" {
		if _, err := s.catalogue.Get(sourceID); err != nil {
			return nil, err
		}
		return []string{sourceID}, nil
	}

	descs := s.catalogue.List()
	ids := make([]string, len(descs))
	for i, d := range descs {
		ids[i] = d.ID
	}
	return ids, nil
}
