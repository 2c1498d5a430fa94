package main

import (
	"context"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/runner"
	"mercator-hq/retainer/pkg/schedule"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show the configured jobs and when they fire next",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		scheduler, err := buildScheduler(cfg, nil, nil)
		if err != nil {
			return err
		}
		return printResult(cmd, scheduler.Jobs())
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

// buildScheduler registers the lifecycle operations and, when history is
// enabled, history pruning. A nil runner or pruner registers the jobs with
// no-op bodies, for listing only.
func buildScheduler(cfg *config.Config, r schedule.OperationRunner, p schedule.Pruner) (*schedule.Scheduler, error) {
	scheduler := schedule.New()

	if r == nil {
		r = nopRunner{}
	}
	if err := scheduler.AddOperations(cfg.Schedule, r); err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		if p == nil {
			p = nopPruner{}
		}
		if err := scheduler.AddPruner(cfg.History.PruneSchedule, p); err != nil {
			return nil, err
		}
	}
	return scheduler, nil
}

type nopRunner struct{}

func (nopRunner) Run(context.Context, runner.Operation, runner.Trigger) (*history.Run, error) {
	return nil, nil
}

type nopPruner struct{}

func (nopPruner) Prune(context.Context) (int64, error) { return 0, nil }
