package cache

import (
	"context"
	"encoding/binary"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	gocache "github.com/patrickmn/go-cache"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
)

// DefaultTTL is used when a non-positive TTL is supplied.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "opticalc:result:"

// Cache stores solver results by key.
type Cache interface {
	Get(ctx context.Context, key string) (knapsack.Result, bool, error)
	Set(ctx context.Context, key string, result knapsack.Result) error
}

// Key derives a stable cache key from the solver inputs. Item order is part of
// the key because it drives tie-breaking.
func Key(mode knapsack.Mode, items []knapsack.Item, budget int) string {
	d := xxhash.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	writeString := func(s string) {
		writeInt(len(s))
		_, _ = d.WriteString(s)
	}

	writeString(string(mode))
	writeInt(budget)
	writeInt(len(items))
	for _, item := range items {
		writeString(item.Name)
		writeInt(item.Cost)
		writeInt(item.SellPrice)
	}
	return keyPrefix + strconv.FormatUint(d.Sum64(), 16)
}

// Memory is an in-process cache with per-entry expiry.
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates an in-process cache whose entries live for ttl.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{store: gocache.New(ttl, 2*ttl)}
}

func (m *Memory) Get(_ context.Context, key string) (knapsack.Result, bool, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return knapsack.Result{}, false, nil
	}
	res, ok := v.(knapsack.Result)
	if !ok {
		return knapsack.Result{}, false, nil
	}
	return clone(res), true, nil
}

func (m *Memory) Set(_ context.Context, key string, result knapsack.Result) error {
	m.store.SetDefault(key, clone(result))
	return nil
}

// Len reports the number of unexpired entries.
func (m *Memory) Len() int {
	return m.store.ItemCount()
}

func clone(res knapsack.Result) knapsack.Result {
	res.Plan = slices.Clone(res.Plan)
	if res.Plan == nil {
		res.Plan = []knapsack.PlanEntry{}
	}
	return res
}
