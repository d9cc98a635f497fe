package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "A bar-synchronous portfolio backtesting engine",
	Long: `Backsim replays historical bar data through a strategy and simulates
portfolio execution with realistic frictions.

It provides tools for:
  - Running backtests from CSV bar data with count/cash/weight order sizing
  - Slippage, commission, and T+0/T+1 settlement enforcement
  - Recording fills, equity curves, and run summaries to SQLite or CSV
  - Reporting on past runs from the journal database`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newLogger builds the CLI logger. Verbose runs get development output
// with debug level; otherwise warnings and up.
func newLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}
