package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

// mockAdapter is a SourceAdapter driven by a function.
type mockAdapter struct {
	kind  string
	fetch func(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error)
	calls atomic.Int32
}

func (m *mockAdapter) Kind() string { return m.kind }

func (m *mockAdapter) Fetch(ctx context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
	m.calls.Add(1)
	return m.fetch(ctx, q)
}

func okAdapter(completeness float64) *mockAdapter {
	return &mockAdapter{
		kind: "mock",
		fetch: func(_ context.Context, q domain.SourceQuery) (domain.RawPayload, error) {
			data, _ := json.Marshal(map[string]string{"source": q.SourceID, "business": q.Business})
			return domain.RawPayload{Data: data, Completeness: completeness}, nil
		},
	}
}

func errAdapter(err error) *mockAdapter {
	return &mockAdapter{
		kind: "mock",
		fetch: func(context.Context, domain.SourceQuery) (domain.RawPayload, error) {
			return domain.RawPayload{}, err
		},
	}
}

// blockingAdapter waits for its context to end.
func blockingAdapter() *mockAdapter {
	return &mockAdapter{
		kind: "mock",
		fetch: func(ctx context.Context, _ domain.SourceQuery) (domain.RawPayload, error) {
			<-ctx.Done()
			return domain.RawPayload{}, ctx.Err()
		},
	}
}

// slowAdapter succeeds after d unless cancelled first.
func slowAdapter(d time.Duration) *mockAdapter {
	return &mockAdapter{
		kind: "mock",
		fetch: func(ctx context.Context, _ domain.SourceQuery) (domain.RawPayload, error) {
			select {
			case <-time.After(d):
				return domain.RawPayload{Data: json.RawMessage(`{"slow":true}`), Completeness: 1}, nil
			case <-ctx.Done():
				return domain.RawPayload{}, ctx.Err()
			}
		},
	}
}

// mockFactory returns pre-built adapters by source ID.
type mockFactory struct {
	mu       sync.RWMutex
	adapters map[string]driven.SourceAdapter
	kinds    []string
	errs     map[string]error
}

func newMockFactory() *mockFactory {
	return &mockFactory{
		adapters: make(map[string]driven.SourceAdapter),
		kinds:    []string{"mock"},
		errs:     make(map[string]error),
	}
}

func (f *mockFactory) set(id string, a driven.SourceAdapter) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.adapters[id] = a
}

func (f *mockFactory) Create(desc domain.SourceDescriptor) (driven.SourceAdapter, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if err, ok := f.errs[desc.ID]; ok {
		return nil, err
	}
	if a, ok := f.adapters[desc.ID]; ok {
		return a, nil
	}
	return okAdapter(1), nil
}

func (f *mockFactory) Register(kind string, _ driven.AdapterBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kinds = append(f.kinds, kind)
}

func (f *mockFactory) SupportedKinds() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := append([]string(nil), f.kinds...)
	sort.Strings(out)
	return out
}

// mockCreds is a map-backed CredentialProvider.
type mockCreds map[string]string

func (c mockCreds) Lookup(name string) (string, bool) {
	v, ok := c[name]
	return v, ok
}

// mockCache is an in-memory IntelligenceCache with injectable errors.
type mockCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
	now     func() time.Time
	getErr  error
	putErr  error
	puts    atomic.Int32
}

func newMockCache(now func() time.Time) *mockCache {
	if now == nil {
		now = time.Now
	}
	return &mockCache{entries: make(map[string]*domain.CacheEntry), now: now}
}

func cacheKey(sourceID, queryKey string) string {
	return sourceID + "|" + queryKey
}

func (c *mockCache) Get(_ context.Context, sourceID, queryKey string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	e, ok := c.entries[cacheKey(sourceID, queryKey)]
	if !ok || e.Expired(c.now()) {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (c *mockCache) Put(_ context.Context, sourceID, queryKey string, p domain.RawPayload, ttl time.Duration) error {
	c.puts.Add(1)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.putErr != nil {
		return c.putErr
	}
	c.entries[cacheKey(sourceID, queryKey)] = domain.NewCacheEntry(sourceID, queryKey, p, ttl, c.now())
	return nil
}

func (c *mockCache) Delete(_ context.Context, sourceID, queryKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(sourceID, queryKey))
	return nil
}

func (c *mockCache) Purge(_ context.Context, sourceID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if sourceID == "" || e.SourceID == sourceID {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

func (c *mockCache) has(sourceID, queryKey string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[cacheKey(sourceID, queryKey)]
	return ok
}

func (c *mockCache) seed(sourceID, queryKey string, storedAt time.Time, ttl time.Duration, completeness float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := domain.RawPayload{Data: json.RawMessage(`{"cached":true}`), Completeness: completeness}
	c.entries[cacheKey(sourceID, queryKey)] = domain.NewCacheEntry(sourceID, queryKey, p, ttl, storedAt)
}

// mockTelemetry records every callback.
type mockTelemetry struct {
	mu       sync.Mutex
	outcomes []domain.SourceOutcome
	bundles  []*domain.IntelligenceBundle
	failures []error
}

func (m *mockTelemetry) OutcomeRecorded(o domain.SourceOutcome) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, o)
}

func (m *mockTelemetry) BundleAssembled(b *domain.IntelligenceBundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles = append(m.bundles, b)
}

func (m *mockTelemetry) GatherFailed(_ string, err error, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, err)
}

func (m *mockTelemetry) counts() (outcomes, bundles, failures int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.outcomes), len(m.bundles), len(m.failures)
}

// mockGatherer returns canned bundles for the warmer.
type mockGatherer struct {
	mu    sync.Mutex
	calls []string
	opts  []domain.GatherOptions
	err   error
}

func (m *mockGatherer) Gather(_ context.Context, business string, opts domain.GatherOptions) (*domain.IntelligenceBundle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, business)
	m.opts = append(m.opts, opts)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IntelligenceBundle{
		BusinessID:        business,
		Viable:            true,
		OverallConfidence: 88.5,
		Outcomes:          []domain.SourceOutcome{{SourceID: "a", Status: domain.StatusSuccess}},
	}, nil
}

func (m *mockGatherer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// testDesc returns a valid descriptor for the mock kind.
func testDesc(id string, tier domain.PriorityTier) domain.SourceDescriptor {
	return domain.SourceDescriptor{
		ID:       id,
		Kind:     "mock",
		Timeout:  time.Second,
		CacheTTL: time.Hour,
		Tier:     tier,
	}
}

func criticalDesc(id string) domain.SourceDescriptor {
	d := testDesc(id, domain.TierCritical)
	d.IsCritical = true
	return d
}

// testDescs returns n medium-tier descriptors named s01..sNN.
func testDescs(n int) []domain.SourceDescriptor {
	descs := make([]domain.SourceDescriptor, n)
	for i := range descs {
		descs[i] = testDesc(fmt.Sprintf("s%02d", i+1), domain.TierMedium)
	}
	return descs
}

func testSettings(minViable int) domain.OrchestratorSettings {
	s := domain.DefaultOrchestratorSettings()
	s.MinViableSources = minViable
	return s
}
