package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestOutcomeStatus_IsUsable tests which statuses carry data
func TestOutcomeStatus_IsUsable(t *testing.T) {
	assert.True(t, StatusSuccess.IsUsable())
	assert.True(t, StatusCached.IsUsable())
	assert.False(t, StatusFailure.IsUsable())
	assert.False(t, StatusTimedOut.IsUsable())
}

// TestOutcomeConstructors tests that each constructor sets only its fields
func TestOutcomeConstructors(t *testing.T) {
	payload := RawPayload{Data: []byte(`{"ok":true}`), Completeness: 0.8}

	s := SuccessOutcome("a", payload, 120*time.Millisecond, 1)
	assert.Equal(t, StatusSuccess, s.Status)
	assert.Equal(t, 0.8, s.Completeness)
	assert.Nil(t, s.CacheAge)
	assert.Empty(t, s.ErrorKind)

	f := FailureOutcome("b", ErrorKindAuth, errors.New("401"), time.Second, 1)
	assert.Equal(t, StatusFailure, f.Status)
	assert.Equal(t, ErrorKindAuth, f.ErrorKind)
	assert.Equal(t, "401", f.Error)
	assert.Nil(t, f.Payload)

	to := TimedOutOutcome("c", "global deadline reached", 30*time.Second, 0)
	assert.Equal(t, StatusTimedOut, to.Status)
	assert.Empty(t, to.ErrorKind)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := NewCacheEntry("d", "acme.com", payload, time.Hour, now.Add(-10*time.Minute))
	c := CachedOutcome(entry, now)
	assert.Equal(t, StatusCached, c.Status)
	require.NotNil(t, c.CacheAge)
	assert.Equal(t, 10*time.Minute, *c.CacheAge)
	assert.Equal(t, 0, c.Attempts)
}

// TestCacheEntry tests expiry and age
func TestCacheEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e := NewCacheEntry("serper-search", "acme.com", RawPayload{Data: []byte(`{}`)}, 60*time.Second, now)

	assert.False(t, e.Expired(now))
	assert.Equal(t, time.Duration(0), e.Age(now))
	assert.False(t, e.Expired(now.Add(59*time.Second)))
	assert.True(t, e.Expired(now.Add(60*time.Second)))
	assert.Equal(t, 60*time.Second, e.TTL())

	// clock skew never yields a negative age
	assert.Equal(t, time.Duration(0), e.Age(now.Add(-time.Second)))
}

// TestIntelligenceBundle_Helpers tests bundle lookups and counts
func TestIntelligenceBundle_Helpers(t *testing.T) {
	b := &IntelligenceBundle{Outcomes: []SourceOutcome{
		{SourceID: "a", Status: StatusSuccess},
		{SourceID: "b", Status: StatusCached},
		{SourceID: "c", Status: StatusFailure, ErrorKind: ErrorKindAuth},
		{SourceID: "d", Status: StatusTimedOut},
		{SourceID: "e", Status: StatusSuccess},
	}}

	assert.Equal(t, 3, b.UsableCount())
	assert.Equal(t, map[OutcomeStatus]int{
		StatusSuccess:  2,
		StatusCached:   1,
		StatusFailure:  1,
		StatusTimedOut: 1,
	}, b.StatusCounts())

	o, ok := b.Outcome("c")
	require.True(t, ok)
	assert.Equal(t, ErrorKindAuth, o.ErrorKind)

	_, ok = b.Outcome("z")
	assert.False(t, ok)
}

// TestWarmTarget_Due tests warm target scheduling
func TestWarmTarget_Due(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, (&WarmTarget{}).Due(now))
	assert.True(t, (&WarmTarget{NextRun: now}).Due(now))
	assert.False(t, (&WarmTarget{NextRun: now.Add(time.Minute)}).Due(now))
}
