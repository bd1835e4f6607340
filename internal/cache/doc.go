// Package cache memoizes solver results. Solving is pure, so a result keyed by
// mode, budget, and the exact item sequence can be reused until it expires.
// Memory keeps results in-process; Redis shares them between replicas.
package cache
