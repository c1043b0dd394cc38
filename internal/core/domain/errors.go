package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown source kind.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCacheUnavailable indicates the cache backend could not be reached.
	ErrCacheUnavailable = errors.New("cache unavailable")

	// Source Errors.

	// ErrSourceTimeout indicates the source did not answer in time.
	ErrSourceTimeout = errors.New("source timed out")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrSourceAuth indicates the source rejected or lacks credentials.
	ErrSourceAuth = errors.New("source authentication failed")

	// ErrMalformedResponse indicates the source answered with an unexpected shape.
	ErrMalformedResponse = errors.New("malformed source response")

	// Invocation Errors.

	// ErrInsufficientIntelligence indicates too few usable sources for a viable bundle.
	ErrInsufficientIntelligence = errors.New("insufficient intelligence")

	// ErrConfiguration indicates the source configuration is unusable.
	ErrConfiguration = errors.New("invalid configuration")
)

// ErrorKind classifies a source failure.
type ErrorKind string

// Available error kinds.
const (
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindRateLimited       ErrorKind = "rate-limited"
	ErrorKindAuth              ErrorKind = "auth"
	ErrorKindMalformedResponse ErrorKind = "malformed-response"
	ErrorKindUnknown           ErrorKind = "unknown"
)

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}

// IsRetryable returns true if a repeat attempt may succeed.
// Rate limits and auth errors will not clear within one invocation.
func (k ErrorKind) IsRetryable() bool {
	return k == ErrorKindTimeout || k == ErrorKindUnknown
}

// ClassifyError maps an adapter error to its failure kind.
func ClassifyError(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return ErrorKindRateLimited
	case errors.Is(err, ErrSourceAuth):
		return ErrorKindAuth
	case errors.Is(err, ErrMalformedResponse):
		return ErrorKindMalformedResponse
	case errors.Is(err, ErrSourceTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	default:
		return ErrorKindUnknown
	}
}

// RateLimitError is returned by adapters when the API answers 429.
// RetryAfter is zero when the API gave no hint.
type RateLimitError struct {
	SourceID   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s", e.SourceID, e.RetryAfter)
	}
	return fmt.Sprintf("%s: rate limited", e.SourceID)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// InsufficientIntelligenceError is returned when a fan-out does not meet
// the viability policy. It carries enough detail for the caller to decide
// whether to retry, degrade or abort.
type InsufficientIntelligenceError struct {
	// Usable is the number of success or cached outcomes.
	Usable int

	// Required is the configured minimum.
	Required int

	// Shortfall is Required minus Usable, or zero when the count was met.
	Shortfall int

	// MissingCritical lists critical sources without a usable outcome.
	MissingCritical []string

	// Bundle is the non-viable bundle, for inspection. May be nil.
	Bundle *IntelligenceBundle
}

func (e *InsufficientIntelligenceError) Error() string {
	var parts []string
	if e.Shortfall > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d required sources usable (short by %d)", e.Usable, e.Required, e.Shortfall))
	}
	if len(e.MissingCritical) > 0 {
		parts = append(parts, "missing critical sources: "+strings.Join(e.MissingCritical, ", "))
	}
	if len(parts) == 0 {
		return ErrInsufficientIntelligence.Error()
	}
	return ErrInsufficientIntelligence.Error() + ": " + strings.Join(parts, "; ")
}

// Is reports whether target is ErrInsufficientIntelligence.
func (e *InsufficientIntelligenceError) Is(target error) bool {
	return target == ErrInsufficientIntelligence
}

// ConfigurationError aggregates every startup configuration problem.
type ConfigurationError struct {
	Problems []string
}

func (e *ConfigurationError) Error() string {
	switch len(e.Problems) {
	case 0:
		return ErrConfiguration.Error()
	case 1:
		return ErrConfiguration.Error() + ": " + e.Problems[0]
	default:
		return fmt.Sprintf("%s: %d problems:\n  - %s", ErrConfiguration, len(e.Problems), strings.Join(e.Problems, "\n  - "))
	}
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError returns nil when there are no problems.
// Problems are sorted for stable output.
func NewConfigurationError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	sorted := append([]string(nil), problems...)
	sort.Strings(sorted)
	return &ConfigurationError{Problems: sorted}
}

// IsInsufficientIntelligence returns the typed error if err carries one.
func IsInsufficientIntelligence(err error) (*InsufficientIntelligenceError, bool) {
	var ie *InsufficientIntelligenceError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}
