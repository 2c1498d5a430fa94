// Package schedule triggers lifecycle operations and history pruning on
// cron expressions (github.com/robfig/cron/v3, standard five-field syntax,
// local time).
//
//	s := schedule.New()
//	if err := s.AddOperations(cfg.Schedule, r); err != nil {
//	    return err
//	}
//	s.AddPruner(cfg.History.PruneSchedule, pruner)
//	s.Start(ctx)
//	defer s.Stop()
//
// A schedule of "off" disables the job.
package schedule
