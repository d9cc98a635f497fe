// Package report renders run summaries and trade logs as plain text.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/quantbench/backsim/journal"
)

const rule = "--------------------------------------------------"

// PrintRun writes a full run summary.
func PrintRun(w io.Writer, r journal.RunRecord) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	fmt.Fprintf(w, "Created:       %s\n", r.Created.Format(time.RFC3339))
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	if r.Dataset != "" {
		fmt.Fprintf(w, "Dataset:       %s\n", r.Dataset)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Performance")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Initial Cash:  %.2f\n", r.InitialCash)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.FinalEquity)
	fmt.Fprintf(w, "Total Return:  %.2f%%\n", r.TotalReturn*100)
	fmt.Fprintf(w, "Annual Return: %.2f%%\n", r.AnnualReturn*100)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.MaxDrawdown*100)

	fmt.Fprintln(w)
}

// PrintRuns writes a one-line-per-run listing.
func PrintRuns(w io.Writer, runs []journal.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	fmt.Fprintf(w, "%-26s  %-12s  %-10s  %10s  %8s  %6s\n",
		"RUN ID", "STRATEGY", "DATE", "RETURN", "MAX DD", "TRADES")
	for _, r := range runs {
		fmt.Fprintf(w, "%-26s  %-12s  %-10s  %9.2f%%  %7.2f%%  %6d\n",
			r.RunID, r.Strategy, r.Created.Format("2006-01-02"),
			r.TotalReturn*100, r.MaxDrawdown*100, r.Trades)
	}
}

// PrintFills writes one line per fill or rejection, in execution order.
func PrintFills(w io.Writer, fills []journal.FillRecord) {
	if len(fills) == 0 {
		fmt.Fprintln(w, "no fills recorded")
		return
	}
	fmt.Fprintf(w, "%-20s  %-8s  %-4s  %12s  %10s  %10s  %-8s  %s\n",
		"TIME", "SYMBOL", "SIDE", "QUANTITY", "PRICE", "REALIZED", "STATUS", "REASON")
	for _, f := range fills {
		fmt.Fprintf(w, "%-20s  %-8s  %-4s  %12.2f  %10.4f  %10.2f  %-8s  %s\n",
			f.Time.Format("2006-01-02 15:04"), f.Symbol, f.Side,
			f.Quantity, f.Price, f.Realized, f.Status, f.Reason)
	}
}
