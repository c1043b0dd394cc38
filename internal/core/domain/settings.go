package domain

import (
	"fmt"
	"time"
)

// Default orchestrator settings.
const (
	DefaultMinViableSources = 8
	DefaultGlobalDeadline   = 30 * time.Second
	DefaultRetryAttempts    = 1
	DefaultRetryDelay       = 250 * time.Millisecond

	// MaxRetryAttempts bounds guarded attempts per source call.
	MaxRetryAttempts = 2
)

// ScoringPolicy holds the constants of the confidence model.
type ScoringPolicy struct {
	// FreshScore is the score of a fully complete fresh success.
	FreshScore float64

	// CachedCeiling is the score of a fully complete cache hit at age zero.
	CachedCeiling float64

	// CacheFloorRatio is the fraction of CachedCeiling kept at age >= ttl.
	CacheFloorRatio float64

	// CompletenessWeight is how much of the score depends on completeness.
	CompletenessWeight float64
}

// DefaultScoringPolicy returns the default confidence model.
func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		FreshScore:         100,
		CachedCeiling:      95,
		CacheFloorRatio:    0.6,
		CompletenessWeight: 0.5,
	}
}

// Validate returns one message per invalid field.
func (p ScoringPolicy) Validate() []string {
	var problems []string
	if p.FreshScore <= 0 || p.FreshScore > 100 {
		problems = append(problems, "scoring: fresh score must be in (0,100]")
	}
	if p.CachedCeiling <= 0 || p.CachedCeiling > p.FreshScore {
		problems = append(problems, "scoring: cached ceiling must be in (0,fresh score]")
	}
	if p.CacheFloorRatio < 0 || p.CacheFloorRatio > 1 {
		problems = append(problems, "scoring: cache floor ratio must be in [0,1]")
	}
	if p.CompletenessWeight < 0 || p.CompletenessWeight > 1 {
		problems = append(problems, "scoring: completeness weight must be in [0,1]")
	}
	return problems
}

// OrchestratorSettings configures the fan-out.
type OrchestratorSettings struct {
	// MinViableSources is the minimum usable outcome count.
	MinViableSources int

	// GlobalDeadline bounds one fan-out from its start.
	GlobalDeadline time.Duration

	// RetryAttempts is the number of guarded attempts per call, 1 or 2.
	RetryAttempts int

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	// RateLimitWait is how long a call may wait for a token. Zero fails
	// immediately when the bucket is empty.
	RateLimitWait time.Duration

	Scoring ScoringPolicy
}

// DefaultOrchestratorSettings returns the default settings.
func DefaultOrchestratorSettings() OrchestratorSettings {
	return OrchestratorSettings{
		MinViableSources: DefaultMinViableSources,
		GlobalDeadline:   DefaultGlobalDeadline,
		RetryAttempts:    DefaultRetryAttempts,
		RetryDelay:       DefaultRetryDelay,
		Scoring:          DefaultScoringPolicy(),
	}
}

// Validate returns one message per invalid field.
func (s OrchestratorSettings) Validate() []string {
	var problems []string
	if s.MinViableSources < 0 {
		problems = append(problems, "orchestrator: min viable sources must not be negative")
	}
	if s.GlobalDeadline <= 0 {
		problems = append(problems, "orchestrator: global deadline must be positive")
	}
	if s.RetryAttempts < 1 || s.RetryAttempts > MaxRetryAttempts {
		problems = append(problems, fmt.Sprintf("orchestrator: retry attempts must be between 1 and %d", MaxRetryAttempts))
	}
	if s.RetryAttempts > 1 && s.RetryDelay <= 0 {
		problems = append(problems, "orchestrator: retry delay must be positive when retrying")
	}
	if s.RateLimitWait < 0 {
		problems = append(problems, "orchestrator: rate limit wait must not be negative")
	}
	return append(problems, s.Scoring.Validate()...)
}

// CacheBackend selects the cache implementation.
type CacheBackend string

// Available cache backends.
const (
	CacheBackendMemory CacheBackend = "memory"
	CacheBackendSQLite CacheBackend = "sqlite"
	CacheBackendRedis  CacheBackend = "redis"
)

// IsValid returns true if the backend is recognised.
func (b CacheBackend) IsValid() bool {
	switch b {
	case CacheBackendMemory, CacheBackendSQLite, CacheBackendRedis:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b CacheBackend) String() string {
	return string(b)
}

// CacheSettings configures the cache backend.
type CacheSettings struct {
	Backend CacheBackend

	// Dir is the SQLite data directory. Empty uses ~/.synapse/data.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RedisPrefix namespaces cache keys in a shared Redis.
	RedisPrefix string
}

// ServerSettings configures the HTTP server.
type ServerSettings struct {
	Addr string
}

// AppSettings is the complete application configuration.
type AppSettings struct {
	Orchestrator OrchestratorSettings
	Cache        CacheSettings
	Server       ServerSettings
	Warmer       WarmerConfig

	// SourcesFile is a TOML file of source descriptors.
	// Empty uses the built-in source set.
	SourcesFile string
}

// DefaultAppSettings returns sensible defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Orchestrator: DefaultOrchestratorSettings(),
		Cache: CacheSettings{
			Backend:     CacheBackendMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "synapse",
		},
		Server: ServerSettings{Addr: ":8080"},
		Warmer: DefaultWarmerConfig(),
	}
}

// Validate returns one message per invalid setting.
func (s AppSettings) Validate() []string {
	problems := s.Orchestrator.Validate()
	if !s.Cache.Backend.IsValid() {
		problems = append(problems, fmt.Sprintf("cache: unknown backend %q", s.Cache.Backend))
	}
	if s.Cache.Backend == CacheBackendRedis && s.Cache.RedisAddr == "" {
		problems = append(problems, "cache: redis backend needs an address")
	}
	return problems
}
