package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/firedash/firedash/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(runID uint64) *core.Snapshot {
	return &core.Snapshot{
		RunID: runID,
		Request: core.SimulationRequest{
			CurrentAge:     "35",
			LifeExpectancy: "95",
			CurrentAssets:  "500000",
		},
		Result: &core.SimulationResult{
			RuinRates: []core.RuinPoint{{Age: 60, Rate: 4.2}},
			Projections: core.Projections{
				Recommended: &core.ScenarioProjection{
					Ages:      []int{60},
					P90:       []float64{500},
					P50:       []float64{400},
					P10:       []float64{300},
					RetireAge: 52,
				},
			},
		},
		SubmittedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuntStorage_EmptyReturnsNil(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestBuntStorage_RoundTrip(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	require.NoError(t, store.SaveLatest(context.Background(), snapshot(1)))

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.EqualValues(t, 1, snap.RunID)
	assert.Equal(t, "35", snap.Request.CurrentAge)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 52, snap.Result.Projections.Recommended.RetireAge)
	assert.Nil(t, snap.Result.Projections.Age30)
}

func TestBuntStorage_SaveReplacesPrevious(t *testing.T) {
	store, err := NewFromMemory()
	require.NoError(t, err)

	require.NoError(t, store.SaveLatest(context.Background(), snapshot(1)))
	require.NoError(t, store.SaveLatest(context.Background(), snapshot(2)))

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.EqualValues(t, 2, snap.RunID)
}

func TestSQLStorage_RoundTrip(t *testing.T) {
	store, err := NewFromSQLite(filepath.Join(t.TempDir(), "firedash.db"), DefaultConfig())
	require.NoError(t, err)

	snap, err := store.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, store.SaveLatest(context.Background(), snapshot(1)))
	require.NoError(t, store.SaveLatest(context.Background(), snapshot(2)))

	snap, err = store.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.EqualValues(t, 2, snap.RunID)
	assert.Equal(t, "500000", snap.Request.CurrentAssets)
	require.NotNil(t, snap.Result)
	require.Len(t, snap.Result.RuinRates, 1)
	assert.Equal(t, 60, snap.Result.RuinRates[0].Age)
}
