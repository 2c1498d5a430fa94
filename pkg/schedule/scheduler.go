package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/retainer/pkg/config"
)

// JobFunc is the body of a scheduled job.
type JobFunc func(ctx context.Context)

// JobInfo describes a registered job.
type JobInfo struct {
	Name string    `json:"name"`
	Spec string    `json:"schedule"`
	Next time.Time `json:"next,omitempty"`
}

// Scheduler runs named jobs on cron expressions in local time.
// A job that is still running when its next tick arrives is skipped for
// that tick.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
	specs   map[string]string
	running bool
	logger  *slog.Logger
}

// New creates a stopped scheduler.
func New() *Scheduler {
	logger := slog.Default().With("component", "schedule")
	cronLog := cronLogger{logger: logger}

	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
		specs:   make(map[string]string),
		logger:  logger,
	}
}

// Add registers fn under name. An empty spec or config.ScheduleDisabled
// leaves the job unscheduled. Names must be unique.
func (s *Scheduler) Add(name, spec string, fn JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec = strings.TrimSpace(spec)
	if spec == "" || spec == config.ScheduleDisabled {
		s.logger.Info("job disabled", "job", name)
		return nil
	}
	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job %q already registered", name)
	}

	id, err := s.cron.AddFunc(spec, func() {
		s.runJob(name, fn)
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q for job %q: %w", spec, name, err)
	}

	s.entries[name] = id
	s.specs[name] = spec
	return nil
}

// Start begins running jobs. Jobs receive ctx; the scheduler stops when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}

	s.ctx = ctx
	s.cron.Start()
	s.running = true

	s.logger.Info("scheduler started", "jobs", len(s.entries))

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

// runJob executes one tick of a job.
func (s *Scheduler) runJob(name string, fn JobFunc) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	start := time.Now()
	s.logger.Debug("scheduled job triggered", "job", name)
	fn(ctx)
	s.logger.Debug("scheduled job finished", "job", name, "duration_ms", time.Since(start).Milliseconds())
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// Jobs returns the registered jobs sorted by name. Before Start, Next is
// computed from the current time.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobs := make([]JobInfo, 0, len(s.entries))
	for name, id := range s.entries {
		jobs = append(jobs, JobInfo{
			Name: name,
			Spec: s.specs[name],
			Next: s.next(id),
		})
	}
	slices.SortFunc(jobs, func(a, b JobInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return jobs
}

// NextRun returns the next time the named job fires.
func (s *Scheduler) NextRun(name string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	next := s.next(id)
	return next, !next.IsZero()
}

func (s *Scheduler) next(id cron.EntryID) time.Time {
	entry := s.cron.Entry(id)
	if entry.Next.IsZero() && entry.Schedule != nil {
		return entry.Schedule.Next(time.Now())
	}
	return entry.Next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
