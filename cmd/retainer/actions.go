package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/runner"
)

var actionDescriptions = map[runner.Operation]struct{ short, long string }{
	runner.ClearIndices: {
		short: "Delete managed indices older than the retention window",
		long: `Delete every <prefix>-YYYY.MM.DD index whose date falls outside the
retention window (indices.days, today included) and print what was deleted.
Indices are deleted in batches of indices.delete_batch_size names.`,
	},
	runner.UpdateAliases: {
		short: "Move managed aliases onto their time windows",
		long: `Point every managed alias at exactly the indices of its window
(aliases.mappings) in a single atomic request and print the resulting alias
state. Aliases already in place are left untouched.`,
	},
	runner.UpdateReplicas: {
		short: "Apply the replica policy to older indices",
		long: `Set indices.replicas.value replicas on every managed index older than
indices.replicas.days and print the shard and replica counts of all indices.
Shard counts are never changed.`,
	},
}

func init() {
	for _, op := range runner.Operations() {
		rootCmd.AddCommand(newActionCmd(op))
	}
}

func newActionCmd(op runner.Operation) *cobra.Command {
	var dryRun bool

	desc := actionDescriptions[op]
	cmd := &cobra.Command{
		Use:   op.Slug(),
		Short: desc.short,
		Long: desc.long + `

The run is recorded in the run history when history is enabled.
With --dry-run the planned changes are printed and nothing is modified.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dryRun {
				return planAction(cmd, cfg, op)
			}
			return runAction(cmd, cfg, op)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the planned changes without applying them")
	return cmd
}

func runAction(cmd *cobra.Command, cfg *config.Config, op runner.Operation) error {
	manager, _, err := newManager(cfg)
	if err != nil {
		return err
	}

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	run, err := runner.New(manager, runner.WithHistory(store)).Run(cmd.Context(), op, runner.TriggerCLI)
	if err != nil {
		if run == nil {
			return cli.NewCommandError(op.Slug(), err)
		}
		return cli.NewCommandError(op.Slug(), fmt.Errorf("run %s: %w", run.ID, err))
	}

	result, err := decodeResult(op, run)
	if err != nil {
		return err
	}
	return printResult(cmd, result)
}

// decodeResult turns the stored JSON result of run back into the typed
// value the operation returned, so every output format can render it.
func decodeResult(op runner.Operation, run *history.Run) (any, error) {
	switch op {
	case runner.ClearIndices:
		return decodeAs[[]string](run)
	case runner.UpdateAliases:
		return decodeAs[lifecycle.AliasState](run)
	case runner.UpdateReplicas:
		return decodeAs[map[string]lifecycle.IndexSettings](run)
	default:
		return nil, fmt.Errorf("%w: %q", runner.ErrUnknownOperation, op)
	}
}

func decodeAs[T any](run *history.Run) (any, error) {
	var v T
	if err := json.Unmarshal(run.Result, &v); err != nil {
		return nil, fmt.Errorf("failed to decode result of run %s: %w", run.ID, err)
	}
	return v, nil
}

// planAction prints what op would change now without changing it:
// the indices to delete, the alias actions, or the indices whose replica
// count would be set.
func planAction(cmd *cobra.Command, cfg *config.Config, op runner.Operation) error {
	manager, _, err := newManager(cfg)
	if err != nil {
		return err
	}

	plan, err := buildPlan(cmd.Context(), manager, op, time.Now())
	if err != nil {
		return err
	}
	return printResult(cmd, plan)
}

// planSource is the read side of the lifecycle manager used for dry runs.
type planSource interface {
	Policy() lifecycle.Policy
	ListIndices(ctx context.Context) ([]string, error)
	ListAliases(ctx context.Context) (lifecycle.AliasState, error)
}

func buildPlan(ctx context.Context, src planSource, op runner.Operation, now time.Time) (any, error) {
	policy := src.Policy()

	switch op {
	case runner.ClearIndices:
		indices, err := src.ListIndices(ctx)
		if err != nil {
			return nil, err
		}
		return nonNil(lifecycle.IndicesToDelete(indices, policy.Prefix, policy.RetentionDays, now)), nil

	case runner.UpdateAliases:
		state, err := src.ListAliases(ctx)
		if err != nil {
			return nil, err
		}
		actions := lifecycle.PlanAliasActions(state, policy.AliasWindows, policy.Prefix, now)
		if actions == nil {
			actions = []lifecycle.AliasAction{}
		}
		return actions, nil

	case runner.UpdateReplicas:
		if policy.Replicas == nil {
			return []string{}, nil
		}
		indices, err := src.ListIndices(ctx)
		if err != nil {
			return nil, err
		}
		return nonNil(lifecycle.ReplicaCandidates(indices, policy.Prefix, policy.Replicas.Days, now)), nil

	default:
		return nil, fmt.Errorf("%w: %q", runner.ErrUnknownOperation, op)
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
