package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/history/retention"
	"mercator-hq/retainer/pkg/runner"
)

var historyFlags struct {
	operation string
	status    string
	limit     int
}

var pruneFlags struct {
	days int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded lifecycle runs",
	Long: `List recorded lifecycle runs, newest first.

Examples:
  # Last 50 runs
  retainer history

  # Failed alias updates
  retainer history --operation update-aliases --status failure

  # One run as JSON
  retainer history show 3f1c2a9e-... -o json`,
	Args: cobra.NoArgs,
	RunE: listHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  showRun,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than the history retention period",
	Long: `Delete runs that started more than history.retention_days days ago.
"retainer run" does this on history.prune_schedule; this command prunes now.`,
	Args: cobra.NoArgs,
	RunE: pruneHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd, historyPruneCmd)

	historyCmd.Flags().StringVar(&historyFlags.operation, "operation", "", "only runs of this operation (clear-indices, update-aliases, update-replicas)")
	historyCmd.Flags().StringVar(&historyFlags.status, "status", "", "only runs with this status (success, failure)")
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", history.DefaultListLimit, fmt.Sprintf("maximum number of runs (at most %d)", history.MaxListLimit))

	historyPruneCmd.Flags().IntVar(&pruneFlags.days, "days", 0, "override history.retention_days")
}

// historyQuery validates the list flags.
func historyQuery() (history.Query, error) {
	query := history.Query{
		Status: history.Status(historyFlags.status),
		Limit:  historyFlags.limit,
	}

	if historyFlags.operation != "" {
		op, err := runner.ParseOperation(historyFlags.operation)
		if err != nil {
			return history.Query{}, cli.NewUsageError("%v", err)
		}
		query.Operation = string(op)
	}

	switch query.Status {
	case "", history.StatusSuccess, history.StatusFailure:
	default:
		return history.Query{}, cli.NewUsageError("--status must be success or failure, got %q", historyFlags.status)
	}

	if query.Limit <= 0 {
		return history.Query{}, cli.NewUsageError("--limit must be a positive integer")
	}
	return query, nil
}

func listHistory(cmd *cobra.Command, args []string) error {
	query, err := historyQuery()
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(cmd.Context(), query)
	if err != nil {
		return err
	}
	return printResult(cmd, runs)
}

func showRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	run, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printResult(cmd, run)
}

func pruneHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := requireHistory(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	days := cfg.History.RetentionDays
	if cmd.Flags().Changed("days") {
		days = pruneFlags.days
	}

	pruner := retention.NewPruner(store, retention.Config{RetentionDays: days})
	cutoff, enabled := pruner.Cutoff()
	if !enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "History retention is disabled; nothing pruned")
		return nil
	}

	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d run(s) started before %s\n", deleted, cutoff.Format("2006-01-02 15:04:05"))
	return nil
}
