// Package planner runs optimizations on behalf of the calling layer: it
// resolves the item list, consults the result cache, invokes the solver and
// records each run in the history.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/opticalc/internal/cache"
	"github.com/eugenenazirov/opticalc/internal/knapsack"
	"github.com/eugenenazirov/opticalc/internal/storage"
)

// ErrNoItems is returned when neither the request nor the catalog provides items.
var ErrNoItems = errors.New("no items to optimize")

// Request describes one optimization. A nil Items slice selects the stored catalog.
type Request struct {
	Mode   knapsack.Mode
	Budget int
	Items  []knapsack.Item
}

// Outcome carries the solver result together with bookkeeping about the run.
type Outcome struct {
	Result  knapsack.Result
	RunID   string
	Cached  bool
	Elapsed time.Duration
}

// Service wires solver, storage and cache.
type Service struct {
	solver knapsack.Solver
	store  storage.Storage
	cache  cache.Cache
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables result memoization.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

// New constructs a Service.
func New(solver knapsack.Solver, store storage.Storage, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		solver: solver,
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Optimize solves req and records the run. Cache and history failures are
// logged and never fail the request.
func (s *Service) Optimize(ctx context.Context, req Request) (Outcome, error) {
	items := req.Items
	if items == nil {
		catalog, err := s.store.ListItems(ctx)
		if err != nil {
			return Outcome{}, fmt.Errorf("load catalog: %w", err)
		}
		items = storage.Items(catalog)
	}
	if len(items) == 0 {
		return Outcome{}, ErrNoItems
	}

	start := time.Now()
	key := cache.Key(req.Mode, items, req.Budget)
	result, cached := s.lookup(ctx, key)
	if !cached {
		var err error
		result, err = s.solver.Solve(req.Mode, items, req.Budget)
		if err != nil {
			return Outcome{}, err
		}
		s.remember(ctx, key, result)
	}
	elapsed := time.Since(start)

	outcome := Outcome{Result: result, Cached: cached, Elapsed: elapsed}
	run, err := s.store.SaveRun(ctx, storage.NewRun(result))
	if err != nil {
		s.logger.Warn("failed to record run", zap.Error(err))
	} else {
		outcome.RunID = run.ID
	}

	s.logger.Info("optimization completed",
		zap.String("mode", string(result.Mode)),
		zap.Int("items", len(items)),
		zap.Int("budget", req.Budget),
		zap.Int("total_profit", result.TotalProfit),
		zap.Int("total_cost", result.TotalCost()),
		zap.Bool("cached", cached),
		zap.Duration("duration", elapsed),
		zap.String("run_id", outcome.RunID),
	)
	return outcome, nil
}

// History returns the most recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]storage.Run, error) {
	return s.store.ListRuns(ctx, limit)
}

func (s *Service) lookup(ctx context.Context, key string) (knapsack.Result, bool) {
	if s.cache == nil {
		return knapsack.Result{}, false
	}
	res, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("cache lookup failed", zap.String("key", key), zap.Error(err))
		return knapsack.Result{}, false
	}
	return res, ok
}

func (s *Service) remember(ctx context.Context, key string, res knapsack.Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, res); err != nil {
		s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
	}
}
