package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
)

// DefaultMaxItems caps the catalog when no explicit limit is configured.
const DefaultMaxItems = 999

var (
	// ErrInvalidItem indicates the provided item violates validation rules.
	ErrInvalidItem = errors.New("catalog item is invalid")
	// ErrItemNotFound is returned when no catalog item has the requested ID.
	ErrItemNotFound = errors.New("catalog item not found")
	// ErrCatalogFull is returned when adding an item would exceed the configured limit.
	ErrCatalogFull = errors.New("catalog item limit reached")
)

// CatalogItem is a stored candidate purchase.
type CatalogItem struct {
	ID string `json:"id"`
	knapsack.Item
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Run records one completed optimization.
type Run struct {
	ID          string               `json:"id"`
	Mode        knapsack.Mode        `json:"mode"`
	Budget      int                  `json:"budget"`
	TotalProfit int                  `json:"totalProfit"`
	TotalCost   int                  `json:"totalCost"`
	Plan        []knapsack.PlanEntry `json:"plan"`
	CreatedAt   time.Time            `json:"createdAt"`
}

// NewRun captures a solver result as a history record.
func NewRun(res knapsack.Result) Run {
	return Run{
		Mode:        res.Mode,
		Budget:      res.Budget,
		TotalProfit: res.TotalProfit,
		TotalCost:   res.TotalCost(),
		Plan:        slices.Clone(res.Plan),
	}
}

// Storage provides access to the item catalog and the optimization history.
type Storage interface {
	ListItems(ctx context.Context) ([]CatalogItem, error)
	GetItem(ctx context.Context, id string) (CatalogItem, error)
	AddItem(ctx context.Context, item knapsack.Item) (CatalogItem, error)
	UpdateItem(ctx context.Context, id string, item knapsack.Item) (CatalogItem, error)
	DeleteItem(ctx context.Context, id string) error
	ClearItems(ctx context.Context) error
	SaveRun(ctx context.Context, run Run) (Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
}

// Items strips storage metadata so the catalog can be handed to a solver.
func Items(catalog []CatalogItem) []knapsack.Item {
	out := make([]knapsack.Item, len(catalog))
	for i, c := range catalog {
		out[i] = c.Item
	}
	return out
}

// Option configures a storage implementation.
type Option func(*options)

type options struct {
	maxItems int
	clock    func() time.Time
	newID    func() string
}

// WithMaxItems overrides the catalog size limit. Non-positive values fall back to DefaultMaxItems.
func WithMaxItems(limit int) Option {
	return func(o *options) {
		o.maxItems = limit
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{
		maxItems: DefaultMaxItems,
		clock: func() time.Time {
			return time.Now().UTC()
		},
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxItems <= 0 {
		o.maxItems = DefaultMaxItems
	}
	return o
}

func normalizeItem(item knapsack.Item) (knapsack.Item, error) {
	normalized, err := knapsack.NewItem(item.Name, item.Cost, item.SellPrice)
	if err != nil {
		return knapsack.Item{}, fmt.Errorf("%w: %w", ErrInvalidItem, err)
	}
	return normalized, nil
}

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage keeps the catalog in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	opts options

	mu    sync.RWMutex
	items []CatalogItem
	runs  []Run
}

// NewMemoryStorage initialises an empty in-memory catalog.
func NewMemoryStorage(opts ...Option) *MemoryStorage {
	return &MemoryStorage{
		opts:  buildOptions(opts),
		items: []CatalogItem{},
	}
}

// ListItems returns a defensive copy of the catalog in insertion order.
func (s *MemoryStorage) ListItems(_ context.Context) ([]CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.items), nil
}

func (s *MemoryStorage) GetItem(_ context.Context, id string) (CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return CatalogItem{}, ErrItemNotFound
	}
	return s.items[idx], nil
}

// AddItem validates and appends an item.
func (s *MemoryStorage) AddItem(_ context.Context, item knapsack.Item) (CatalogItem, error) {
	normalized, err := normalizeItem(item)
	if err != nil {
		return CatalogItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) >= s.opts.maxItems {
		return CatalogItem{}, ErrCatalogFull
	}
	now := s.opts.clock()
	stored := CatalogItem{
		ID:        s.opts.newID(),
		Item:      normalized,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.items = append(s.items, stored)
	return stored, nil
}

func (s *MemoryStorage) UpdateItem(_ context.Context, id string, item knapsack.Item) (CatalogItem, error) {
	normalized, err := normalizeItem(item)
	if err != nil {
		return CatalogItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return CatalogItem{}, ErrItemNotFound
	}
	s.items[idx].Item = normalized
	s.items[idx].UpdatedAt = s.opts.clock()
	return s.items[idx], nil
}

func (s *MemoryStorage) DeleteItem(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ErrItemNotFound
	}
	s.items = slices.Delete(s.items, idx, idx+1)
	return nil
}

func (s *MemoryStorage) ClearItems(_ context.Context) error {
	s.mu.Lock()
	s.items = []CatalogItem{}
	s.mu.Unlock()
	return nil
}

// SaveRun assigns an ID and timestamp and appends the run to the history.
func (s *MemoryStorage) SaveRun(_ context.Context, run Run) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run.ID = s.opts.newID()
	run.CreatedAt = s.opts.clock()
	run.Plan = slices.Clone(run.Plan)
	s.runs = append(s.runs, run)
	return run, nil
}

// ListRuns returns the newest runs first. A non-positive limit returns all runs.
func (s *MemoryStorage) ListRuns(_ context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.runs)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Run, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		run := s.runs[i]
		run.Plan = slices.Clone(run.Plan)
		out = append(out, run)
	}
	return out, nil
}

func (s *MemoryStorage) indexOf(id string) int {
	return slices.IndexFunc(s.items, func(c CatalogItem) bool {
		return c.ID == id
	})
}
