package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-labs/synapse/internal/core/domain"
)

func TestWarmStore_SaveAndGetTarget(t *testing.T) {
	store, _ := setupTestStore(t)
	ws := store.WarmStore()
	ctx := context.Background()

	missing, err := ws.GetTarget(ctx, "acme.com")
	require.NoError(t, err)
	assert.Nil(t, missing)

	target := &domain.WarmTarget{
		Business:       "acme.com",
		Params:         map[string]string{"location": "Austin"},
		Interval:       90 * time.Minute,
		LastRun:        epoch,
		NextRun:        epoch.Add(90 * time.Minute),
		LastError:      "insufficient intelligence",
		LastConfidence: 72.5,
	}
	require.NoError(t, ws.SaveTarget(ctx, target))

	got, err := ws.GetTarget(ctx, "acme.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, target.Business, got.Business)
	assert.Equal(t, target.Params, got.Params)
	assert.Equal(t, target.Interval, got.Interval)
	assert.True(t, target.LastRun.Equal(got.LastRun))
	assert.True(t, target.NextRun.Equal(got.NextRun))
	assert.Equal(t, target.LastError, got.LastError)
	assert.Equal(t, target.LastConfidence, got.LastConfidence)
}

func TestWarmStore_SaveTarget_Update(t *testing.T) {
	store, _ := setupTestStore(t)
	ws := store.WarmStore()
	ctx := context.Background()

	require.NoError(t, ws.SaveTarget(ctx, &domain.WarmTarget{Business: "acme.com", Interval: time.Hour, LastError: "boom"}))
	require.NoError(t, ws.SaveTarget(ctx, &domain.WarmTarget{Business: "acme.com", Interval: 2 * time.Hour}))

	got, err := ws.GetTarget(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, got.Interval)
	assert.Empty(t, got.LastError)
	assert.Nil(t, got.Params)
	assert.True(t, got.LastRun.IsZero())
}

func TestWarmStore_SaveTarget_Nil(t *testing.T) {
	store, _ := setupTestStore(t)
	assert.ErrorIs(t, store.WarmStore().SaveTarget(context.Background(), nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, store.WarmStore().RecordResult(context.Background(), nil), domain.ErrInvalidInput)
}

func TestWarmStore_ListAndDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	ws := store.WarmStore()
	ctx := context.Background()

	for _, b := range []string{"globex.com", "acme.com", "initech.com"} {
		require.NoError(t, ws.SaveTarget(ctx, &domain.WarmTarget{Business: b, Interval: time.Hour}))
	}
	require.NoError(t, ws.RecordResult(ctx, &domain.WarmResult{Business: "acme.com", StartedAt: epoch, EndedAt: epoch}))

	list, err := ws.ListTargets(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "acme.com", list[0].Business)
	assert.Equal(t, "globex.com", list[1].Business)

	require.NoError(t, ws.DeleteTarget(ctx, "acme.com"))
	list, _ = ws.ListTargets(ctx)
	assert.Len(t, list, 2)
	history, _ := ws.History(ctx, "acme.com", 0)
	assert.Empty(t, history)
}

func TestWarmStore_History(t *testing.T) {
	store, _ := setupTestStore(t)
	ws := store.WarmStore()
	ctx := context.Background()

	for i := range 5 {
		start := epoch.Add(time.Duration(i) * time.Hour)
		require.NoError(t, ws.RecordResult(ctx, &domain.WarmResult{
			Business:  "acme.com",
			StartedAt: start,
			EndedAt:   start.Add(1500 * time.Millisecond),
			Success:   i%2 == 0,
			Error:     map[bool]string{true: "", false: "timeout"}[i%2 == 0],
			Usable:    10 + i,
		}))
	}
	require.NoError(t, ws.RecordResult(ctx, &domain.WarmResult{Business: "globex.com", StartedAt: epoch, EndedAt: epoch}))

	recent, err := ws.History(ctx, "acme.com", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 14, recent[0].Usable)
	assert.True(t, recent[0].Success)
	assert.Equal(t, 13, recent[1].Usable)
	assert.Equal(t, "timeout", recent[1].Error)
	assert.True(t, recent[0].EndedAt.Equal(epoch.Add(4*time.Hour+1500*time.Millisecond)))

	all, err := ws.History(ctx, "acme.com", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestWarmStore_PruneHistory(t *testing.T) {
	store, _ := setupTestStore(t)
	ws := store.WarmStore()
	ctx := context.Background()

	for _, b := range []string{"acme.com", "globex.com"} {
		for i := range 4 {
			start := epoch.Add(time.Duration(i) * time.Minute)
			require.NoError(t, ws.RecordResult(ctx, &domain.WarmResult{Business: b, StartedAt: start, EndedAt: start, Usable: i}))
		}
	}

	require.NoError(t, ws.PruneHistory(ctx, 2))

	for _, b := range []string{"acme.com", "globex.com"} {
		history, err := ws.History(ctx, b, 0)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, 3, history[0].Usable)
		assert.Equal(t, 2, history[1].Usable)
	}
}
