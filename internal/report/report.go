// Package report renders optimization results as a plain-text summary.
package report

import (
	"io"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/eugenenazirov/opticalc/internal/knapsack"
)

// errWriter keeps the first write error and turns later writes into no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}

// Write prints totals and the purchase plan for res using English number
// grouping. It returns the first error from w.
func Write(w io.Writer, res knapsack.Result) error {
	ew := &errWriter{w: w}
	p := message.NewPrinter(language.English)

	p.Fprintf(ew, "Mode:              %s\n", res.Mode)
	p.Fprintf(ew, "Budget:            %d\n", res.Budget)
	p.Fprintf(ew, "Total investment:  %d\n", res.TotalCost())
	p.Fprintf(ew, "Projected profit:  %d\n", res.TotalProfit)
	p.Fprintf(ew, "Remaining budget:  %d\n", res.Remaining())
	p.Fprintf(ew, "ROI:               %.2f%%\n", res.ROI())

	if len(res.Plan) == 0 {
		p.Fprintf(ew, "\nNo profitable purchase fits the budget.\n")
		return ew.err
	}

	p.Fprintf(ew, "\n")
	tw := tabwriter.NewWriter(ew, 0, 0, 2, ' ', tabwriter.AlignRight)
	p.Fprintf(tw, "Item\tQty\tUnit cost\tUnit profit\tTotal cost\tTotal profit\t\n")
	for _, entry := range res.Plan {
		p.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%d\t\n",
			entry.Item.Name,
			entry.Quantity,
			entry.Item.Cost,
			entry.Item.Profit(),
			entry.TotalCost,
			entry.TotalProfit,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return ew.err
}
