package knapsack

import "fmt"

// DefaultMaxCells bounds the DP table, (len(items)+1) x (budget+1) cells, when
// no ceiling is configured.
const DefaultMaxCells int64 = 25_000_000

type dpSolver struct {
	maxCells int64
}

// Option configures the solver returned by New.
type Option func(*dpSolver)

// WithMaxCells overrides the DP table ceiling. A non-positive limit disables the check.
func WithMaxCells(limit int64) Option {
	return func(s *dpSolver) {
		s.maxCells = limit
	}
}

// New creates a Solver based on dynamic programming.
func New(opts ...Option) Solver {
	s := &dpSolver{maxCells: DefaultMaxCells}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SolveBounded runs the 0/1 solver with the default table ceiling.
func SolveBounded(items []Item, budget int) (Result, error) {
	return New().Solve(ModeBounded, items, budget)
}

// SolveUnbounded runs the unbounded solver with the default table ceiling.
func SolveUnbounded(items []Item, budget int) (Result, error) {
	return New().Solve(ModeUnbounded, items, budget)
}

func (s *dpSolver) Solve(mode Mode, items []Item, budget int) (Result, error) {
	if err := validate(items, budget); err != nil {
		return Result{}, err
	}

	switch mode {
	case ModeBounded:
		if err := s.checkCapacity(len(items), budget); err != nil {
			return Result{}, err
		}
		return solveBounded(items, budget), nil
	case ModeUnbounded:
		for idx, item := range items {
			if budget > 0 && item.Cost == 0 && item.Profit() > 0 {
				return Result{}, invalidItem(idx, "cost", "must be positive for a profitable item in unbounded mode")
			}
		}
		if err := s.checkCapacity(len(items), budget); err != nil {
			return Result{}, err
		}
		return solveUnbounded(items, budget), nil
	default:
		return Result{}, invalidField("mode", fmt.Sprintf("%q is not supported", mode))
	}
}

func (s *dpSolver) checkCapacity(n, budget int) error {
	if s.maxCells <= 0 || n == 0 || budget == 0 {
		return nil
	}
	if int64(n)+1 > s.maxCells/(int64(budget)+1) {
		return &CapacityTooLargeError{Items: n, Budget: budget, Limit: s.maxCells}
	}
	return nil
}

func validate(items []Item, budget int) error {
	if budget < 0 {
		return invalidField("budget", "must be non-negative")
	}
	if budget > MaxAmount {
		return invalidField("budget", fmt.Sprintf("must not exceed %d", MaxAmount))
	}
	for idx, item := range items {
		if err := validateItem(idx, item); err != nil {
			return err
		}
	}
	return nil
}
