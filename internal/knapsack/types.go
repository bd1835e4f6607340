package knapsack

import "math"

// MaxAmount caps every cost, sell price, and budget so profit sums stay far from int overflow.
const MaxAmount = math.MaxInt32

// Mode selects the cardinality rule applied to every item.
type Mode string

const (
	// ModeBounded buys each item at most once (0/1 knapsack).
	ModeBounded Mode = "bounded"
	// ModeUnbounded buys any number of units of each item.
	ModeUnbounded Mode = "unbounded"
)

// Item is a candidate purchase. Amounts are whole currency units.
type Item struct {
	Name      string `json:"name"`
	Cost      int    `json:"cost"`
	SellPrice int    `json:"sellPrice"`
}

// Profit is the expected gain of a single unit and may be negative.
func (i Item) Profit() int {
	return i.SellPrice - i.Cost
}

// PlanEntry is one row of a purchase plan. Bounded plans always carry
// Quantity 1; unbounded plans aggregate every unit bought under one name.
type PlanEntry struct {
	Item        Item `json:"item"`
	Quantity    int  `json:"quantity"`
	TotalCost   int  `json:"totalCost"`
	TotalProfit int  `json:"totalProfit"`
}

// Result is the best attainable profit and the plan that achieves it.
type Result struct {
	Mode        Mode        `json:"mode"`
	Budget      int         `json:"budget"`
	TotalProfit int         `json:"totalProfit"`
	Plan        []PlanEntry `json:"plan"`
}

// TotalCost sums the spend of every plan entry.
func (r Result) TotalCost() int {
	total := 0
	for _, entry := range r.Plan {
		total += entry.TotalCost
	}
	return total
}

// Remaining is the part of the budget left unspent.
func (r Result) Remaining() int {
	return r.Budget - r.TotalCost()
}

// Units counts every unit bought across the plan.
func (r Result) Units() int {
	units := 0
	for _, entry := range r.Plan {
		units += entry.Quantity
	}
	return units
}

// ROI returns profit as a percentage of the invested amount, or 0 when nothing is bought.
func (r Result) ROI() float64 {
	cost := r.TotalCost()
	if cost == 0 {
		return 0
	}
	return float64(r.TotalProfit) * 100 / float64(cost)
}

// Solver describes the behaviour required from a knapsack solver.
type Solver interface {
	Solve(mode Mode, items []Item, budget int) (Result, error)
}
