package main

import (
	"context"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/lifecycle"
)

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "List all index names, sorted",
	Args:  cobra.NoArgs,
	RunE: statusCommand(func(ctx context.Context, m *lifecycle.Manager) (any, error) {
		return m.ListIndices(ctx)
	}),
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show shard and replica counts of every index",
	Args:  cobra.NoArgs,
	RunE: statusCommand(func(ctx context.Context, m *lifecycle.Manager) (any, error) {
		return m.ListIndexSettings(ctx)
	}),
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases",
	Short: "Show the indices behind each managed alias",
	Args:  cobra.NoArgs,
	RunE: statusCommand(func(ctx context.Context, m *lifecycle.Manager) (any, error) {
		return m.ListAliases(ctx)
	}),
}

func init() {
	rootCmd.AddCommand(indicesCmd, settingsCmd, aliasesCmd)
}

// statusCommand wraps a read-only query of the cluster.
func statusCommand(query func(ctx context.Context, m *lifecycle.Manager) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		manager, _, err := newManager(cfg)
		if err != nil {
			return err
		}

		result, err := query(cmd.Context(), manager)
		if err != nil {
			return err
		}
		return printResult(cmd, result)
	}
}
