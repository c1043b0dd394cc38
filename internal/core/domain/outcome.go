package domain

import (
	"encoding/json"
	"time"
)

// OutcomeStatus is the settled state of one source attempt.
type OutcomeStatus string

// Available outcome statuses.
const (
	StatusSuccess  OutcomeStatus = "success"
	StatusFailure  OutcomeStatus = "failure"
	StatusTimedOut OutcomeStatus = "timed-out"
	StatusCached   OutcomeStatus = "cached"
)

// IsUsable returns true if the outcome carries data.
func (s OutcomeStatus) IsUsable() bool {
	return s == StatusSuccess || s == StatusCached
}

// String returns the string representation.
func (s OutcomeStatus) String() string {
	return string(s)
}

// SourceOutcome is the result of one source attempt. It is created once per
// source per fan-out and never mutated afterwards.
type SourceOutcome struct {
	SourceID string        `json:"source_id"`
	Status   OutcomeStatus `json:"status"`

	// Payload is set for success and cached outcomes.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Completeness is the payload's completeness, zero without a payload.
	Completeness float64 `json:"completeness"`

	// Duration is wall time spent on this source, zero for cached outcomes.
	Duration time.Duration `json:"duration_ns"`

	// CacheAge is set only for cached outcomes.
	CacheAge *time.Duration `json:"cache_age_ns,omitempty"`

	// ErrorKind is set only for failure outcomes.
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Error is the human-readable failure reason, if any.
	Error string `json:"error,omitempty"`

	// Attempts counts adapter calls made, zero for cached outcomes.
	Attempts int `json:"attempts,omitempty"`
}

// IsUsable returns true if the outcome carries data.
func (o SourceOutcome) IsUsable() bool {
	return o.Status.IsUsable()
}

// SuccessOutcome builds a fresh success outcome.
func SuccessOutcome(sourceID string, payload RawPayload, d time.Duration, attempts int) SourceOutcome {
	return SourceOutcome{
		SourceID:     sourceID,
		Status:       StatusSuccess,
		Payload:      payload.Data,
		Completeness: payload.Completeness,
		Duration:     d,
		Attempts:     attempts,
	}
}

// FailureOutcome builds a failure outcome with the classified kind.
func FailureOutcome(sourceID string, kind ErrorKind, err error, d time.Duration, attempts int) SourceOutcome {
	o := SourceOutcome{
		SourceID:  sourceID,
		Status:    StatusFailure,
		ErrorKind: kind,
		Duration:  d,
		Attempts:  attempts,
	}
	if err != nil {
		o.Error = err.Error()
	}
	return o
}

// TimedOutOutcome builds a timed-out outcome.
func TimedOutOutcome(sourceID, reason string, d time.Duration, attempts int) SourceOutcome {
	return SourceOutcome{
		SourceID: sourceID,
		Status:   StatusTimedOut,
		Error:    reason,
		Duration: d,
		Attempts: attempts,
	}
}

// CachedOutcome builds a cached outcome from a cache entry read at now.
func CachedOutcome(entry *CacheEntry, now time.Time) SourceOutcome {
	age := entry.Age(now)
	return SourceOutcome{
		SourceID:     entry.SourceID,
		Status:       StatusCached,
		Payload:      entry.Payload,
		Completeness: entry.Completeness,
		CacheAge:     &age,
	}
}
