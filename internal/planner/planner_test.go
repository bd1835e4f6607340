package planner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/opticalc/internal/cache"
	"github.com/eugenenazirov/opticalc/internal/knapsack"
	"github.com/eugenenazirov/opticalc/internal/storage"
)

type countingSolver struct {
	inner knapsack.Solver
	calls atomic.Int32
}

func (c *countingSolver) Solve(mode knapsack.Mode, items []knapsack.Item, budget int) (knapsack.Result, error) {
	c.calls.Add(1)
	return c.inner.Solve(mode, items, budget)
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (knapsack.Result, bool, error) {
	return knapsack.Result{}, false, errors.New("cache down")
}

func (brokenCache) Set(context.Context, string, knapsack.Result) error {
	return errors.New("cache down")
}

func seededStore(t *testing.T) *storage.MemoryStorage {
	t.Helper()

	store := storage.NewMemoryStorage()
	for _, item := range []knapsack.Item{
		{Name: "A", Cost: 60, SellPrice: 100},
		{Name: "B", Cost: 100, SellPrice: 120},
		{Name: "C", Cost: 120, SellPrice: 150},
	} {
		_, err := store.AddItem(context.Background(), item)
		require.NoError(t, err)
	}
	return store
}

func TestOptimizeUsesCatalog(t *testing.T) {
	t.Parallel()

	store := seededStore(t)
	svc := New(knapsack.New(), store, zaptest.NewLogger(t))

	out, err := svc.Optimize(context.Background(), Request{Mode: knapsack.ModeBounded, Budget: 180})
	require.NoError(t, err)
	assert.Equal(t, 70, out.Result.TotalProfit)
	assert.False(t, out.Cached)
	assert.NotEmpty(t, out.RunID)

	runs, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out.RunID, runs[0].ID)
	assert.Equal(t, 180, runs[0].TotalCost)
}

func TestOptimizePrefersRequestItems(t *testing.T) {
	t.Parallel()

	svc := New(knapsack.New(), seededStore(t), zaptest.NewLogger(t))

	out, err := svc.Optimize(context.Background(), Request{
		Mode:   knapsack.ModeUnbounded,
		Budget: 120,
		Items:  []knapsack.Item{{Name: "X", Cost: 50, SellPrice: 80}},
	})
	require.NoError(t, err)
	assert.Equal(t, 60, out.Result.TotalProfit)
	require.Len(t, out.Result.Plan, 1)
	assert.Equal(t, 2, out.Result.Plan[0].Quantity)
}

func TestOptimizeServesRepeatsFromCache(t *testing.T) {
	t.Parallel()

	solver := &countingSolver{inner: knapsack.New()}
	svc := New(solver, seededStore(t), zaptest.NewLogger(t), WithCache(cache.NewMemory(0)))
	req := Request{Mode: knapsack.ModeBounded, Budget: 180}

	first, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Optimize(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result, second.Result)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.EqualValues(t, 1, solver.calls.Load())
}

func TestOptimizeSurvivesBrokenCache(t *testing.T) {
	t.Parallel()

	svc := New(knapsack.New(), seededStore(t), zaptest.NewLogger(t), WithCache(brokenCache{}))

	out, err := svc.Optimize(context.Background(), Request{Mode: knapsack.ModeBounded, Budget: 180})
	require.NoError(t, err)
	assert.Equal(t, 70, out.Result.TotalProfit)
	assert.False(t, out.Cached)
}

func TestOptimizeErrors(t *testing.T) {
	t.Parallel()

	empty := New(knapsack.New(), storage.NewMemoryStorage(), zaptest.NewLogger(t))
	_, err := empty.Optimize(context.Background(), Request{Mode: knapsack.ModeBounded, Budget: 100})
	assert.ErrorIs(t, err, ErrNoItems)

	svc := New(knapsack.New(knapsack.WithMaxCells(10)), seededStore(t), nil)
	_, err = svc.Optimize(context.Background(), Request{Mode: knapsack.ModeBounded, Budget: 180})
	assert.ErrorIs(t, err, knapsack.ErrCapacityTooLarge)

	_, err = svc.Optimize(context.Background(), Request{Mode: knapsack.ModeBounded, Budget: -5})
	assert.ErrorIs(t, err, knapsack.ErrInvalidInput)

	runs, err := svc.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs, "failed optimizations are not recorded")
}
