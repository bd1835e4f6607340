package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
	"github.com/eugenenazirov/opticalc/internal/logging"
	"github.com/eugenenazirov/opticalc/internal/report"
	"github.com/eugenenazirov/opticalc/internal/scenario"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "opticalc: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	app := kingpin.New("opticalc", "Recommend which items to buy within a budget to maximize profit")
	file := app.Flag("file", "Scenario file (yaml, json or toml)").Short('f').Required().ExistingFile()
	mode := app.Flag("mode", "Override the scenario mode (bounded or unbounded)").String()
	budget := app.Flag("budget", "Override the scenario budget").Default("-1").Float64()
	maxCells := app.Flag("max-cells", "Upper bound on items x budget (0 disables the check)").Default("25000000").Int64()
	logLevel := app.Flag("log-level", "Log level written to stderr").Default("warn").String()

	if _, err := app.Parse(args); err != nil {
		return err
	}

	logger, err := logging.New(*logLevel)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	sc, err := scenario.Load(*file)
	if err != nil {
		return err
	}
	if *mode != "" {
		sc.Mode = *mode
	}
	if *budget >= 0 {
		sc.Budget = budget
	}

	in, err := sc.Normalize()
	if err != nil {
		return err
	}

	solver := knapsack.New(knapsack.WithMaxCells(*maxCells))
	res, err := solver.Solve(in.Mode, in.Items, in.Budget)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	logger.Debug("scenario solved",
		zap.String("file", *file),
		zap.String("mode", string(in.Mode)),
		zap.Int("items", len(in.Items)),
		zap.Int("budget", in.Budget),
		zap.Int("total_profit", res.TotalProfit),
	)

	return report.Write(stdout, res)
}
