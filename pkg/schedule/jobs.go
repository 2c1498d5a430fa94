package schedule

import (
	"context"
	"log/slog"

	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/runner"
)

// PruneJobName is the job name of history pruning.
const PruneJobName = "prune_history"

// OperationRunner executes lifecycle operations. *runner.Runner satisfies it.
type OperationRunner interface {
	Run(ctx context.Context, op runner.Operation, trigger runner.Trigger) (*history.Run, error)
}

// Pruner deletes expired history. *retention.Pruner satisfies it.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

// AddOperations registers the three lifecycle operations with their
// configured schedules. Failed runs are logged by the runner and the
// schedule continues.
func (s *Scheduler) AddOperations(cfg config.ScheduleConfig, r OperationRunner) error {
	specs := map[runner.Operation]string{
		runner.ClearIndices:   cfg.ClearIndices,
		runner.UpdateAliases:  cfg.UpdateAliases,
		runner.UpdateReplicas: cfg.UpdateReplicas,
	}

	for _, op := range runner.Operations() {
		err := s.Add(string(op), specs[op], func(ctx context.Context) {
			r.Run(ctx, op, runner.TriggerSchedule)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// AddPruner registers history pruning on spec.
func (s *Scheduler) AddPruner(spec string, p Pruner) error {
	return s.Add(PruneJobName, spec, func(ctx context.Context) {
		if _, err := p.Prune(ctx); err != nil {
			s.logger.Error("scheduled history pruning failed", slog.Any("error", err))
		}
	})
}
