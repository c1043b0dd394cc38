package cli

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

type mockGatherer struct {
	bundle   *domain.IntelligenceBundle
	err      error
	events   []domain.SourceOutcome
	business string
	opts     domain.GatherOptions
}

func (m *mockGatherer) Gather(_ context.Context, business string, opts domain.GatherOptions) (*domain.IntelligenceBundle, error) {
	m.business = business
	m.opts = opts
	if opts.Events != nil {
		for _, e := range m.events {
			opts.Events <- e
		}
	}
	return m.bundle, m.err
}

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
			d := m.sources[i]
			return &d, nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockCacheAdmin struct {
	invalidated []string
	purged      []string
	params      map[string]string
	count       int
	err         error
}

func (m *mockCacheAdmin) Invalidate(_ context.Context, sourceID, business string, params map[string]string) (int, error) {
	m.invalidated = append(m.invalidated, sourceID+"|"+business)
	m.params = params
	return m.count, m.err
}

func (m *mockCacheAdmin) Purge(_ context.Context, sourceID string) (int, error) {
	m.purged = append(m.purged, sourceID)
	return m.count, m.err
}

type mockPruner struct {
	count int
	err   error
}

func (m *mockPruner) PruneExpired(context.Context) (int, error) {
	return m.count, m.err
}

type mockWarmer struct {
	mu       sync.Mutex
	targets  []domain.WarmTarget
	tracked  map[string]map[string]string
	trackErr error
	started  bool
	stopped  bool
}

func (m *mockWarmer) Start(ctx context.Context) error {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockWarmer) Stop() error {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
	return nil
}

func (m *mockWarmer) Track(_ context.Context, business string, params map[string]string) error {
	if m.trackErr != nil {
		return m.trackErr
	}
	if m.tracked == nil {
		m.tracked = make(map[string]map[string]string)
	}
	m.tracked[business] = params
	return nil
}

func (m *mockWarmer) Targets(context.Context) ([]domain.WarmTarget, error) {
	return m.targets, nil
}

type mockSettings struct {
	settings    domain.AppSettings
	saved       *domain.AppSettings
	validateErr error
	getErr      error
}

func newMockSettings() *mockSettings {
	return &mockSettings{settings: domain.DefaultAppSettings()}
}

func (m *mockSettings) Get() (*domain.AppSettings, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettings) Save(s *domain.AppSettings) error {
	m.settings = *s
	m.saved = s
	return nil
}

func (m *mockSettings) SetCacheBackend(backend domain.CacheBackend) error {
	if !backend.IsValid() {
		return errors.New("unknown cache backend")
	}
	m.settings.Cache.Backend = backend
	return nil
}

func (m *mockSettings) Validate() error {
	return m.validateErr
}

func (m *mockSettings) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// setupTestServices installs s for the test and restores the previous
// services and flag values afterwards. Map flags are reset to empty maps
// because pflag merges into them once they have been set.
func setupTestServices(t *testing.T, s *Services) {
	t.Helper()
	prev := Services{
		Gatherer:      gatherer,
		Catalogue:     catalogue,
		Cache:         cacheAdmin,
		Settings:      settingsService,
		Warmer:        warmer,
		Credentials:   creds,
		WarmerEnabled: warmerEnabled,
		Pruner:        pruner,
		Metrics:       metrics,
		MinViable:     minViable,
		InitErr:       initErr,
	}
	SetServices(s)
	t.Cleanup(func() {
		SetServices(&prev)
		gatherForceRefresh = false
		gatherDeadline = 0
		gatherParams = map[string]string{}
		gatherJSON = false
		gatherProgress = false
		cacheSource = ""
		cacheParams = map[string]string{}
		warmParams = map[string]string{}
		serveAddr = ""
		serveNoWarm = false
		serveNoMCP = false
	})
}

// run executes the root command with args and returns the combined output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	})
	err := rootCmd.Execute()
	return buf.String(), err
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
			Params:        map[string]string{"num": "10", "gl": "us"},
		},
	}
}

func testBundle() *domain.IntelligenceBundle {
	age := 90 * time.Second
	return &domain.IntelligenceBundle{
		ID:         "b-1",
		BusinessID: "acme.com",
		QueryKey:   "acme.com",
		Outcomes: []domain.SourceOutcome{
			{SourceID: "website", Status: domain.StatusSuccess, Completeness: 0.9, Duration: 420 * time.Millisecond, Attempts: 1},
			{SourceID: "serper-search", Status: domain.StatusCached, Completeness: 0.5, CacheAge: &age},
			{SourceID: "github", Status: domain.StatusFailure, ErrorKind: domain.ErrorKindAuth, Error: "missing token"},
		},
		SourceScores:      map[string]float64{"website": 99, "serper-search": 40, "github": 0},
		OverallConfidence: 61.5,
		Viable:            true,
		GeneratedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Elapsed:           2 * time.Second,
	}
}
