package services

import (
	"fmt"
	"time"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
	"github.com/synapse-labs/synapse/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyMinViable          = "orchestrator.min_viable_sources"
	keyGlobalDeadline     = "orchestrator.global_deadline"
	keyRetryAttempts      = "orchestrator.retry_attempts"
	keyRetryDelay         = "orchestrator.retry_delay"
	keyRateLimitWait      = "orchestrator.rate_limit_wait"
	keyFreshScore         = "scoring.fresh_score"
	keyCachedCeiling      = "scoring.cached_ceiling"
	keyCacheFloorRatio    = "scoring.cache_floor_ratio"
	keyCompletenessWeight = "scoring.completeness_weight"
	keyCacheBackend       = "cache.backend"
	keyCacheDir           = "cache.dir"
	keyRedisAddr          = "redis.addr"
	keyRedisPassword      = "redis.password"
	keyRedisDB            = "redis.db"
	keyRedisPrefix        = "redis.prefix"
	keyServerAddr         = "server.addr"
	keyWarmerEnabled      = "warmer.enabled"
	keyWarmerInterval     = "warmer.interval"
	keyWarmerTick         = "warmer.tick"
	keyWarmerBusinesses   = "warmer.businesses"
	keySourcesFile        = "sources.file"
)

// SettingsService reads and writes application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults for
// unset keys.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	d := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Orchestrator: domain.OrchestratorSettings{
			MinViableSources: s.getInt(keyMinViable, d.Orchestrator.MinViableSources),
			GlobalDeadline:   s.getDuration(keyGlobalDeadline, d.Orchestrator.GlobalDeadline),
			RetryAttempts:    s.getInt(keyRetryAttempts, d.Orchestrator.RetryAttempts),
			RetryDelay:       s.getDuration(keyRetryDelay, d.Orchestrator.RetryDelay),
			RateLimitWait:    s.getDuration(keyRateLimitWait, d.Orchestrator.RateLimitWait),
			Scoring: domain.ScoringPolicy{
				FreshScore:         s.getFloat(keyFreshScore, d.Orchestrator.Scoring.FreshScore),
				CachedCeiling:      s.getFloat(keyCachedCeiling, d.Orchestrator.Scoring.CachedCeiling),
				CacheFloorRatio:    s.getFloat(keyCacheFloorRatio, d.Orchestrator.Scoring.CacheFloorRatio),
				CompletenessWeight: s.getFloat(keyCompletenessWeight, d.Orchestrator.Scoring.CompletenessWeight),
			},
		},
		Cache: domain.CacheSettings{
			Backend:       domain.CacheBackend(s.getString(keyCacheBackend, d.Cache.Backend.String())),
			Dir:           s.configStore.GetString(keyCacheDir),
			RedisAddr:     s.getString(keyRedisAddr, d.Cache.RedisAddr),
			RedisPassword: s.configStore.GetString(keyRedisPassword),
			RedisDB:       s.configStore.GetInt(keyRedisDB),
			RedisPrefix:   s.getString(keyRedisPrefix, d.Cache.RedisPrefix),
		},
		Server: domain.ServerSettings{
			Addr: s.getString(keyServerAddr, d.Server.Addr),
		},
		Warmer: domain.WarmerConfig{
			Enabled:    s.getBool(keyWarmerEnabled, d.Warmer.Enabled),
			Interval:   s.getDuration(keyWarmerInterval, d.Warmer.Interval),
			Tick:       s.getDuration(keyWarmerTick, d.Warmer.Tick),
			Businesses: s.configStore.GetStringSlice(keyWarmerBusinesses),
		},
		SourcesFile: s.configStore.GetString(keySourcesFile),
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	o := settings.Orchestrator
	values := []struct {
		key   string
		value any
	}{
		{keyMinViable, o.MinViableSources},
		{keyGlobalDeadline, o.GlobalDeadline.String()},
		{keyRetryAttempts, o.RetryAttempts},
		{keyRetryDelay, o.RetryDelay.String()},
		{keyRateLimitWait, o.RateLimitWait.String()},
		{keyFreshScore, o.Scoring.FreshScore},
		{keyCachedCeiling, o.Scoring.CachedCeiling},
		{keyCacheFloorRatio, o.Scoring.CacheFloorRatio},
		{keyCompletenessWeight, o.Scoring.CompletenessWeight},
		{keyCacheBackend, settings.Cache.Backend.String()},
		{keyCacheDir, settings.Cache.Dir},
		{keyRedisAddr, settings.Cache.RedisAddr},
		{keyRedisDB, settings.Cache.RedisDB},
		{keyRedisPrefix, settings.Cache.RedisPrefix},
		{keyServerAddr, settings.Server.Addr},
		{keyWarmerEnabled, settings.Warmer.Enabled},
		{keyWarmerInterval, settings.Warmer.Interval.String()},
		{keyWarmerTick, settings.Warmer.Tick.String()},
		{keyWarmerBusinesses, settings.Warmer.Businesses},
		{keySourcesFile, settings.SourcesFile},
	}

	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	if settings.Cache.RedisPassword != "" {
		if err := s.configStore.Set(keyRedisPassword, settings.Cache.RedisPassword); err != nil {
			return fmt.Errorf("save %s: %w", keyRedisPassword, err)
		}
	}

	return nil
}

// SetCacheBackend updates the cache backend.
func (s *SettingsService) SetCacheBackend(backend domain.CacheBackend) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown cache backend %q", domain.ErrInvalidInput, backend)
	}
	return s.configStore.Set(keyCacheBackend, backend.String())
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return domain.NewConfigurationError(settings.Validate())
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}
