package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantbench/backsim/internal/report"
	"github.com/quantbench/backsim/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Query past runs from the journal database",
	Long: `Report reads the SQLite journal and prints run summaries and trade logs.

Subcommands:
  list   - List all recorded runs
  run    - Print the full summary of one run
  fills  - Print a run's fills and rejections in execution order

Examples:
  backsim report list
  backsim report run <run-id>
  backsim report fills <run-id>`,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runReportList,
}

var reportRunCmd = &cobra.Command{
	Use:   "run <run-id>",
	Short: "Print the full summary of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportRun,
}

var reportFillsCmd = &cobra.Command{
	Use:   "fills <run-id>",
	Short: "Print a run's fills and rejections",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportFills,
}

var reportDBPath string

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportListCmd)
	reportCmd.AddCommand(reportRunCmd)
	reportCmd.AddCommand(reportFillsCmd)

	reportCmd.PersistentFlags().StringVarP(&reportDBPath, "db", "d", "./backsim.sqlite", "path to SQLite journal DB")
}

func runReportList(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	report.PrintRuns(os.Stdout, runs)
	return nil
}

func runReportRun(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	rec, err := j.GetRun(args[0])
	if err != nil {
		return fmt.Errorf("get run: %w", err)
	}

	report.PrintRun(os.Stdout, rec)
	return nil
}

func runReportFills(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	fills, err := j.ListFillsByRun(args[0])
	if err != nil {
		return fmt.Errorf("list fills: %w", err)
	}

	report.PrintFills(os.Stdout, fills)
	return nil
}
