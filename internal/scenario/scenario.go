// Package scenario loads offline optimization inputs from YAML, JSON or TOML files.
package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
)

// ErrNoBudget is returned when a scenario omits the budget.
var ErrNoBudget = errors.New("scenario budget is required")

// Scenario is the raw file content before normalization.
type Scenario struct {
	Budget *float64 `mapstructure:"budget"`
	Mode   string   `mapstructure:"mode"`
	Items  []Item   `mapstructure:"items"`
}

// Item is one candidate purchase as written in a scenario file.
type Item struct {
	Name      string  `mapstructure:"name"`
	Cost      float64 `mapstructure:"cost"`
	SellPrice float64 `mapstructure:"sell_price"`
}

// Input is a normalized scenario ready for the solver.
type Input struct {
	Mode   knapsack.Mode
	Budget int
	Items  []knapsack.Item
}

// Load reads a scenario file. The format is taken from the file extension.
// Environment variables prefixed with OPTICALC_ override top-level keys.
func Load(path string) (*Scenario, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("opticalc")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode scenario %s: %w", path, err)
	}
	// Unmarshal skips env-only keys that never appear in the file.
	if s.Budget == nil && v.IsSet("budget") {
		budget := v.GetFloat64("budget")
		s.Budget = &budget
	}
	if s.Mode == "" {
		s.Mode = v.GetString("mode")
	}
	return &s, nil
}

// Normalize validates the scenario and converts amounts to whole units.
func (s *Scenario) Normalize() (Input, error) {
	if s.Budget == nil {
		return Input{}, ErrNoBudget
	}
	budget, err := knapsack.NormalizeBudget(*s.Budget)
	if err != nil {
		return Input{}, err
	}
	mode, err := knapsack.ParseMode(s.Mode)
	if err != nil {
		return Input{}, err
	}

	items := make([]knapsack.Item, 0, len(s.Items))
	for idx, raw := range s.Items {
		item, err := knapsack.NewItemFromAmounts(raw.Name, raw.Cost, raw.SellPrice)
		if err != nil {
			return Input{}, fmt.Errorf("item %d: %w", idx, err)
		}
		items = append(items, item)
	}

	return Input{Mode: mode, Budget: budget, Items: items}, nil
}
