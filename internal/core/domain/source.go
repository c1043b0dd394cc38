package domain

import (
	"fmt"
	"strings"
	"time"
)

// PriorityTier ranks how much a source contributes to overall confidence.
type PriorityTier string

// Available priority tiers.
const (
	// TierCritical marks sources the business profile cannot do without.
	TierCritical PriorityTier = "critical"

	// TierHigh marks sources with strong signal.
	TierHigh PriorityTier = "high"

	// TierMedium marks supporting sources.
	TierMedium PriorityTier = "medium"

	// TierLow marks nice-to-have context sources.
	TierLow PriorityTier = "low"
)

// IsValid returns true if the tier is recognised.
func (t PriorityTier) IsValid() bool {
	switch t {
	case TierCritical, TierHigh, TierMedium, TierLow:
		return true
	default:
		return false
	}
}

// Weight returns the tier's weight in the overall confidence average.
func (t PriorityTier) Weight() float64 {
	switch t {
	case TierCritical:
		return 4
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	default:
		return 0
	}
}

// String returns the string representation.
func (t PriorityTier) String() string {
	return string(t)
}

// ParsePriorityTier parses a tier name. Matching is case-insensitive.
func ParsePriorityTier(s string) (PriorityTier, error) {
	t := PriorityTier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: unknown priority tier %q", ErrInvalidInput, s)
	}
	return t, nil
}

// RateLimit is a token bucket allowance of Calls per Window.
// The zero value means the source is not rate limited.
type RateLimit struct {
	// Calls is the bucket size and the number of calls refilled per window.
	Calls int

	// Window is the refill period.
	Window time.Duration
}

// IsUnlimited returns true if no limit is configured.
func (r RateLimit) IsUnlimited() bool {
	return r.Calls <= 0 || r.Window <= 0
}

// PerSecond returns the sustained refill rate in tokens per second.
func (r RateLimit) PerSecond() float64 {
	if r.IsUnlimited() {
		return 0
	}
	return float64(r.Calls) / r.Window.Seconds()
}

// SourceDescriptor is the static configuration of one third-party source.
// Descriptors are loaded once at startup and never mutated.
type SourceDescriptor struct {
	// ID is the unique identifier for the source (e.g., "serper-search").
	ID string

	// DisplayName is the human-readable name.
	DisplayName string

	// Kind selects the adapter implementation (e.g., "serper", "website").
	Kind string

	// IsCritical marks a source that must succeed for the result to be viable.
	IsCritical bool

	// Timeout bounds a single guarded call to this source.
	Timeout time.Duration

	// RateLimit is the per-source token bucket shared across invocations.
	RateLimit RateLimit

	// CacheTTL is how long a successful payload stays fresh.
	CacheTTL time.Duration

	// Tier weights the source in overall confidence.
	Tier PriorityTier

	// CredentialEnv names the credential the adapter needs.
	// Empty for sources that need no credentials.
	CredentialEnv string

	// Params holds adapter-specific static parameters.
	Params map[string]string
}

// Name returns DisplayName, falling back to ID.
func (d *SourceDescriptor) Name() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}

// Param returns a static parameter or def when unset.
func (d *SourceDescriptor) Param(key, def string) string {
	if v, ok := d.Params[key]; ok && v != "" {
		return v
	}
	return def
}

// Validate returns one message per configuration problem.
// An empty result means the descriptor is usable.
func (d *SourceDescriptor) Validate() []string {
	var problems []string
	label := d.ID
	if label == "" {
		label = "<unnamed>"
	}

	if strings.TrimSpace(d.ID) == "" {
		problems = append(problems, "source id is required")
	} else if strings.ContainsAny(d.ID, " \t\n:") {
		problems = append(problems, fmt.Sprintf("source %s: id must not contain whitespace or ':'", label))
	}
	if strings.TrimSpace(d.Kind) == "" {
		problems = append(problems, fmt.Sprintf("source %s: kind is required", label))
	}
	if d.Timeout <= 0 {
		problems = append(problems, fmt.Sprintf("source %s: timeout must be positive", label))
	}
	if d.CacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("source %s: cache ttl must be positive", label))
	}
	if !d.Tier.IsValid() {
		problems = append(problems, fmt.Sprintf("source %s: unknown priority tier %q", label, d.Tier))
	}
	if d.RateLimit.Calls < 0 || d.RateLimit.Window < 0 {
		problems = append(problems, fmt.Sprintf("source %s: rate limit must not be negative", label))
	}
	if (d.RateLimit.Calls > 0) != (d.RateLimit.Window > 0) {
		problems = append(problems, fmt.Sprintf("source %s: rate limit needs both calls and window", label))
	}

	return problems
}
