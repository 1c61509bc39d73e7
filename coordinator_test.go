package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryStore(t *testing.T) *ResultStore {
	t.Helper()
	s, err := OpenStore(context.Background(), StoreOptions{Path: MemoryStore, PersistSteps: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewCoordinator_Validates(t *testing.T) {
	model := NewCostModel(nil)
	_, err := NewCoordinator(model, nil, SearchOptions{Trials: 1, Workers: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewCoordinator(model, nil, SearchOptions{Trials: -1, Workers: 1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCoordinator_Share(t *testing.T) {
	cases := []struct {
		trials, workers int
		want            []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{2, 4, []int{1, 1, 0, 0}},
		{0, 2, []int{0, 0}},
	}
	for _, tc := range cases {
		c, err := NewCoordinator(NewCostModel(nil), nil, SearchOptions{Trials: tc.trials, Workers: tc.workers})
		require.NoError(t, err)
		got := make([]int, tc.workers)
		for w := range got {
			got[w] = c.share(w)
		}
		assert.Equal(t, tc.want, got, "trials=%d workers=%d", tc.trials, tc.workers)
	}
}

func TestCoordinator_Run(t *testing.T) {
	ctx := context.Background()
	model := NewCostModel(testTable())
	store := memoryStore(t)
	rep := &collectReporter{}
	reg := prometheus.NewRegistry()

	c, err := NewCoordinator(model, store, SearchOptions{
		Trials:     30,
		Workers:    4,
		CacheSize:  100,
		Reporter:   rep,
		Registerer: reg,
	})
	require.NoError(t, err)

	st, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 30, st.Trials)
	assert.Zero(t, st.StoreErrors)
	assert.Equal(t, st.Trials, st.NewValleys+st.Duplicates)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, st.NewValleys, n)

	reported := rep.Results()
	require.Len(t, reported, st.NewValleys)
	for _, r := range reported {
		assert.True(t, IsValley(r.Layout, model), "reported %s is not a valley", r.Layout)
		ok, err := store.Exists(ctx, r.Layout)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	stored, err := store.Best(ctx, 0)
	require.NoError(t, err)
	for _, v := range stored {
		l := mustLayout(t, v.Layout)
		assert.Equal(t, model.Cost(&l), v.Cost)
		assert.True(t, IsValley(l, model))
		assert.GreaterOrEqual(t, v.Steps, 1)
	}

	assert.Equal(t, 30.0, testutil.ToFloat64(c.metrics.trials))
	assert.Equal(t, float64(st.NewValleys), testutil.ToFloat64(c.metrics.newValleys))
	assert.Equal(t, float64(st.Duplicates), testutil.ToFloat64(c.metrics.duplicates))
	assert.Equal(t, stored[0].Cost, testutil.ToFloat64(c.metrics.bestCost))
}

// Every worker replays the same restarts, so every valley is found by all of
// them at about the same time and must still be stored exactly once.
func TestCoordinator_SameValleysRace(t *testing.T) {
	ctx := context.Background()
	model := NewCostModel(testTable())
	store := memoryStore(t)
	rep := &collectReporter{}
	seed := [32]byte{99}

	const workers, perWorker = 8, 6
	c, err := NewCoordinator(model, store, SearchOptions{
		Trials:   workers * perWorker,
		Workers:  workers,
		Reporter: rep,
	})
	require.NoError(t, err)
	c.seed = func() ([32]byte, error) { return seed, nil }

	st, err := c.Run(ctx)
	require.NoError(t, err)

	want := map[Layout]bool{}
	gen := NewSeededGenerator(seed)
	for range perWorker {
		want[FindValley(gen.Next(), model).Layout] = true
	}

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, len(want), st.NewValleys)
	assert.Equal(t, workers*perWorker-len(want), st.Duplicates)

	got := map[Layout]bool{}
	for _, r := range rep.Results() {
		assert.False(t, got[r.Layout], "valley %s reported twice", r.Layout)
		got[r.Layout] = true
	}
	assert.Equal(t, want, got)
}

type failingStore struct {
	mu      sync.Mutex
	inserts int
}

func (f *failingStore) Exists(context.Context, Layout) (bool, error) {
	return false, errors.New("disk on fire")
}

func (f *failingStore) Insert(context.Context, OptimizationResult) (bool, error) {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	return false, errors.New("disk on fire")
}

func TestCoordinator_StoreErrorsAreNotFatal(t *testing.T) {
	store := &failingStore{}
	c, err := NewCoordinator(NewCostModel(FrequencyTable{{'a', 'b'}: 1}), store, SearchOptions{Trials: 12, Workers: 3})
	require.NoError(t, err)

	st, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, st.Trials)
	assert.Zero(t, st.NewValleys)
	// one failed lookup and one failed insert per trial
	assert.Equal(t, 24, st.StoreErrors)
	assert.Equal(t, 12, store.inserts)
	assert.Equal(t, 12.0, testutil.ToFloat64(c.metrics.storeErrs.WithLabelValues("insert")))
}

func TestCoordinator_EntropyFailureAbortsOneWorker(t *testing.T) {
	c, err := NewCoordinator(NewCostModel(FrequencyTable{{'a', 'b'}: 1}), memoryStore(t), SearchOptions{Trials: 10, Workers: 2})
	require.NoError(t, err)

	var calls atomic.Int32
	c.seed = func() ([32]byte, error) {
		if calls.Add(1) == 1 {
			return [32]byte{}, ErrNoEntropy
		}
		return [32]byte{1}, nil
	}

	st, err := c.Run(context.Background())
	require.ErrorIs(t, err, ErrNoEntropy)
	assert.Equal(t, 5, st.Trials)
}

func TestCoordinator_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memoryStore(t)
	c, err := NewCoordinator(NewCostModel(testTable()), store, SearchOptions{Trials: 1000, Workers: 4})
	require.NoError(t, err)

	st, err := c.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, st.Trials)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
