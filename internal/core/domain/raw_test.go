package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRawPayload tests payload construction and clamping
func TestNewRawPayload(t *testing.T) {
	p, err := NewRawPayload(map[string]int{"reviews": 42}, 1.7)
	require.NoError(t, err)
	assert.JSONEq(t, `{"reviews":42}`, string(p.Data))
	assert.Equal(t, 1.0, p.Completeness)
	assert.False(t, p.IsEmpty())

	_, err = NewRawPayload(make(chan int), 1)
	assert.True(t, errors.Is(err, ErrMalformedResponse))
}

// TestRawPayload_IsEmpty tests empty payload detection
func TestRawPayload_IsEmpty(t *testing.T) {
	assert.True(t, RawPayload{}.IsEmpty())
	assert.True(t, RawPayload{Data: []byte("null")}.IsEmpty())
}

// TestCompleteness tests field completeness ratio
func TestCompleteness(t *testing.T) {
	assert.Equal(t, 0.0, Completeness(nil))
	assert.Equal(t, 0.75, Completeness(map[string]bool{"a": true, "b": true, "c": true, "d": false}))
}

// TestClampUnit tests clamping into the unit interval
func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-0.5))
	assert.Equal(t, 0.25, ClampUnit(0.25))
	assert.Equal(t, 1.0, ClampUnit(3))
	assert.Equal(t, 0.0, ClampUnit(math.NaN()))
}
