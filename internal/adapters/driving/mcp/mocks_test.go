package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

// mockGatherer is a mock implementation of driving.IntelligenceGatherer.
type mockGatherer struct {
	bundle *domain.IntelligenceBundle
	err    error

	business string
	opts     domain.GatherOptions
}

func (m *mockGatherer) Gather(
	_ context.Context,
	business string,
	opts domain.GatherOptions,
) (*domain.IntelligenceBundle, error) {
	m.business = business
	m.opts = opts
	return m.bundle, m.err
}

// mockCatalogue is a mock implementation of driving.SourceCatalogue.
type mockCatalogue struct {
	sources []domain.SourceDescriptor
	backoff map[string]time.Time
}

func (m *mockCatalogue) BackoffUntil(id string) time.Time {
	return m.backoff[id]
}

func (m *mockCatalogue) List() []domain.SourceDescriptor {
	return m.sources
}

func (m *mockCatalogue) Get(id string) (*domain.SourceDescriptor, error) {
	for i := range m.sources {
		if m.sources[i].ID == id {
			return &m.sources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockCacheAdmin is a mock implementation of driving.CacheAdmin.
type mockCacheAdmin struct {
	invalidated int
	err         error

	sourceID string
	business string
}

func (m *mockCacheAdmin) Invalidate(_ context.Context, sourceID, business string, _ map[string]string) (int, error) {
	m.sourceID = sourceID
	m.business = business
	return m.invalidated, m.err
}

func (m *mockCacheAdmin) Purge(_ context.Context, _ string) (int, error) {
	return m.invalidated, m.err
}

func testBundle() *domain.IntelligenceBundle {
	age := 90 * time.Second
	return &domain.IntelligenceBundle{
		ID:         "bundle-1",
		BusinessID: "acme.com",
		QueryKey:   "acme.com",
		Outcomes: []domain.SourceOutcome{
			{
				SourceID:     "website",
				Status:       domain.StatusSuccess,
				Payload:      json.RawMessage(`{"title":"Acme"}`),
				Completeness: 1,
				Duration:     1200 * time.Millisecond,
				Attempts:     1,
			},
			{
				SourceID:     "serper-search",
				Status:       domain.StatusCached,
				Payload:      json.RawMessage(`{"organic":[]}`),
				Completeness: 0.5,
				CacheAge:     &age,
			},
			{
				SourceID:  "github",
				Status:    domain.StatusFailure,
				ErrorKind: domain.ErrorKindAuth,
				Error:     "credential GITHUB_TOKEN is not set",
			},
		},
		SourceScores:      map[string]float64{"website": 100, "serper-search": 70, "github": 0},
		OverallConfidence: 61.5,
		Viable:            true,
		Elapsed:           2 * time.Second,
	}
}

func testSources() []domain.SourceDescriptor {
	return []domain.SourceDescriptor{
		{
			ID:          "website",
			DisplayName: "Company Website",
			Kind:        "website",
			IsCritical:  true,
			Timeout:     10 * time.Second,
			CacheTTL:    24 * time.Hour,
			Tier:        domain.TierCritical,
		},
		{
			ID:            "serper-search",
			Kind:          "serper",
			Timeout:       8 * time.Second,
			CacheTTL:      6 * time.Hour,
			Tier:          domain.TierHigh,
			RateLimit:     domain.RateLimit{Calls: 5, Window: time.Second},
			CredentialEnv: "SERPER_API_KEY",
			Params:        map[string]string{"endpoint": "search"},
		},
	}
}
