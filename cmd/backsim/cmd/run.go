package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantbench/backsim/config"
	"github.com/quantbench/backsim/engine"
	"github.com/quantbench/backsim/feed"
	"github.com/quantbench/backsim/indicators"
	"github.com/quantbench/backsim/internal/report"
	"github.com/quantbench/backsim/journal"
	"github.com/quantbench/backsim/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over CSV bar data",
	Long: `Run replays a CSV bar file through a strategy and journals the results.

The bar file has one row per symbol per timestamp:
  time,symbol,open,high,low,close,volume

Supported strategies:
  - noop: does nothing (baseline / data validation)
  - buy-hold: equal-weight entry on the first bar, then hold
  - sma-cross: fast/slow moving-average crossover per symbol

Example:
  backsim run --bars data/daily.csv --strategy sma-cross --symbols AAA,BBB --fast 20 --slow 50`,
	RunE: runRun,
}

var (
	runBarsPath   string
	runConfigPath string
	runDBPath     string
	runCSVPrefix  string
	runStrategy   string
	runSymbols    []string
	runFast       int
	runSlow       int
	runFrom       string
	runTo         string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runBarsPath, "bars", "b", "", "path to bar CSV (time,symbol,open,high,low,close,volume) (required)")
	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to run config (YAML or JSON); defaults apply if omitted")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "./backsim.sqlite", "path to SQLite journal DB")
	runCmd.Flags().StringVar(&runCSVPrefix, "csv", "", "journal to CSV files with this prefix instead of SQLite")

	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "noop", "strategy name (noop, buy-hold, sma-cross)")
	runCmd.Flags().StringSliceVar(&runSymbols, "symbols", nil, "symbols the strategy trades (default: whole feed)")
	runCmd.Flags().IntVar(&runFast, "fast", 20, "sma-cross: fast SMA period")
	runCmd.Flags().IntVar(&runSlow, "slow", 50, "sma-cross: slow SMA period")

	runCmd.Flags().StringVar(&runFrom, "from", "", "only replay bars at or after this date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&runTo, "to", "", "only replay bars before this date (YYYY-MM-DD)")

	runCmd.MarkFlagRequired("bars")
}

func runRun(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg := config.Default()
	if runConfigPath != "" {
		cfg, err = config.Load(runConfigPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	from, to, err := parseRange(runFrom, runTo)
	if err != nil {
		return err
	}

	strat, err := strategy.ByName(runStrategy, runSymbols, runFast, runSlow)
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	jnl, err := openJournal()
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	defer jnl.Close()

	opts := []engine.Option{
		engine.WithJournal(jnl),
		engine.WithLogger(log),
		engine.WithDataset(filepath.Base(runBarsPath)),
	}

	// sma-cross reads precomputed series; build its table over the full
	// bar range before the run starts
	if s, ok := strat.(*strategy.SMACross); ok {
		table, err := precompute(s, from, to)
		if err != nil {
			return fmt.Errorf("indicators: %w", err)
		}
		opts = append(opts, engine.WithIndicators(table))
	}

	f, err := feed.NewCSVFeed(runBarsPath, from, to)
	if err != nil {
		return fmt.Errorf("open bars: %w", err)
	}

	runner, err := engine.NewRunner(cfg, f, strat, opts...)
	if err != nil {
		return err
	}

	fmt.Printf("Running backtest with strategy: %s\n", strat.Name())
	fmt.Printf("  Bars: %s\n", runBarsPath)
	fmt.Printf("  Journal: %s\n\n", journalLabel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	report.PrintRun(os.Stdout, runRecord(res, strat.Name()))
	if res.Rejections > 0 {
		fmt.Printf("Rejections:    %d (see journal for reason codes)\n", res.Rejections)
	}
	return nil
}

func openJournal() (journal.Journal, error) {
	if runCSVPrefix != "" {
		return journal.NewCSV(runCSVPrefix+"_fills.csv", runCSVPrefix+"_equity.csv")
	}
	return journal.NewSQLite(runDBPath)
}

func journalLabel() string {
	if runCSVPrefix != "" {
		return runCSVPrefix + "_{fills,equity}.csv"
	}
	return runDBPath
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("bad --from %q: %w", fromStr, err)
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("bad --to %q: %w", toStr, err)
		}
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return from, to, fmt.Errorf("--to %s must be after --from %s", toStr, fromStr)
	}
	return from, to, nil
}

// precompute drains one pass over the bar file to build the indicator
// table, then the run opens the file again for the replay itself.
func precompute(s *strategy.SMACross, from, to time.Time) (*indicators.Table, error) {
	f, err := feed.NewCSVFeed(runBarsPath, from, to)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := feed.Drain(f)
	if err != nil {
		return nil, err
	}

	specs := make(map[string]indicators.SeriesFunc)
	for name, period := range s.Indicators() {
		specs[name] = indicators.SMAFunc(period)
	}
	return indicators.Precompute(all, specs)
}

func runRecord(res *engine.Result, strategyName string) journal.RunRecord {
	sum := res.Summary
	return journal.RunRecord{
		RunID:        res.RunID,
		Strategy:     strategyName,
		Dataset:      filepath.Base(runBarsPath),
		Created:      time.Now().UTC(),
		Start:        sum.Start,
		End:          sum.End,
		InitialCash:  sum.InitialCash,
		FinalEquity:  sum.FinalEquity,
		TotalReturn:  sum.TotalReturn,
		AnnualReturn: sum.AnnualReturn,
		MaxDrawdown:  sum.MaxDrawdown,
		Trades:       sum.Trades,
		Wins:         sum.Wins,
		Losses:       sum.Losses,
		WinRate:      sum.WinRate,
	}
}
