package domain

import (
	"encoding/json"
	"fmt"
)

// RawPayload is the opaque data an adapter returns. The orchestrator never
// inspects Data beyond checking it is present.
type RawPayload struct {
	// Data is the adapter's normalised JSON document.
	Data json.RawMessage

	// Completeness is the fraction of expected fields present, in [0,1].
	Completeness float64
}

// NewRawPayload marshals v and clamps completeness into [0,1].
func NewRawPayload(v any, completeness float64) (RawPayload, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return RawPayload{}, fmt.Errorf("%w: marshal payload: %w", ErrMalformedResponse, err)
	}
	return RawPayload{Data: data, Completeness: ClampUnit(completeness)}, nil
}

// IsEmpty returns true if the payload carries no data.
func (p RawPayload) IsEmpty() bool {
	return len(p.Data) == 0 || string(p.Data) == "null"
}

// Completeness returns the fraction of names with a non-zero value.
// Adapters use it to report how much of their expected shape was filled.
func Completeness(fields map[string]bool) float64 {
	if len(fields) == 0 {
		return 0
	}
	present := 0
	for _, ok := range fields {
		if ok {
			present++
		}
	}
	return float64(present) / float64(len(fields))
}

// ClampUnit clamps v into [0,1].
func ClampUnit(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
