package knapsack

import (
	"fmt"
	"math"
	"strings"
)

// NewItem validates and builds an Item. The name is trimmed.
func NewItem(name string, cost, sellPrice int) (Item, error) {
	item := Item{
		Name:      strings.TrimSpace(name),
		Cost:      cost,
		SellPrice: sellPrice,
	}
	if err := validateItem(-1, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// NewItemFromAmounts normalizes fractional amounts before building the Item.
func NewItemFromAmounts(name string, cost, sellPrice float64) (Item, error) {
	c, err := normalizeField("cost", cost)
	if err != nil {
		return Item{}, err
	}
	s, err := normalizeField("sellPrice", sellPrice)
	if err != nil {
		return Item{}, err
	}
	return NewItem(name, c, s)
}

// NormalizeAmount rounds a monetary value to the nearest whole unit (half away
// from zero). Whole values pass through unchanged, so normalizing twice is a no-op.
func NormalizeAmount(value float64) (int, error) {
	return normalizeField("amount", value)
}

// NormalizeBudget applies NormalizeAmount rules to a budget.
func NormalizeBudget(value float64) (int, error) {
	return normalizeField("budget", value)
}

func normalizeField(field string, value float64) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, invalidField(field, "must be a finite number")
	}
	rounded := math.Round(value)
	if rounded < 0 {
		return 0, invalidField(field, "must be non-negative")
	}
	if rounded > MaxAmount {
		return 0, invalidField(field, fmt.Sprintf("must not exceed %d", MaxAmount))
	}
	return int(rounded), nil
}

func validateItem(index int, item Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return invalidItem(index, "name", "must not be empty")
	}
	if err := checkAmount(index, "cost", item.Cost); err != nil {
		return err
	}
	return checkAmount(index, "sellPrice", item.SellPrice)
}

func checkAmount(index int, field string, value int) error {
	switch {
	case value < 0:
		return invalidItem(index, field, "must be non-negative")
	case value > MaxAmount:
		return invalidItem(index, field, fmt.Sprintf("must not exceed %d", MaxAmount))
	}
	return nil
}
