package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"sync"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/history/retention"
	"mercator-hq/retainer/pkg/runner"
	"mercator-hq/retainer/pkg/schedule"
	"mercator-hq/retainer/pkg/security/auth"
	"mercator-hq/retainer/pkg/server"
	"mercator-hq/retainer/pkg/telemetry/health"
	"mercator-hq/retainer/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	watchConfig   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the HTTP server and the scheduler",
	Long: `Start the retainer HTTP server and run the lifecycle operations on their
cron schedules.

The server exposes the cluster status (/status/...), on-demand actions
(POST /actions/{operation}), the run history, health probes and Prometheus
metrics. SIGHUP reloads the configuration; --watch-config also reloads it
whenever the file changes. A reload swaps the Elasticsearch settings, the
index policy and the schedules. Server, history and telemetry settings
take effect on restart.

Examples:
  # Start with a config file
  retainer run --config /etc/retainer/retainer.yaml

  # Configure from the environment only, on another port
  ELASTICSEARCH_URL=http://es:9200 ELASTICSEARCH_USER=elastic \
  ELASTICSEARCH_PASSWORD=secret retainer run --listen :9000`,
	Args: cobra.NoArgs,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().BoolVar(&runFlags.watchConfig, "watch-config", false, "reload the configuration when the file changes")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.watchConfig && cfgFile == "" {
		return cli.NewUsageError("--watch-config requires --config")
	}

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	collector := metrics.NewCollector(cfg.Telemetry.Metrics, nil)

	manager, client, err := newManager(cfg)
	if err != nil {
		return err
	}
	client.SetObserver(collector)
	manager.SetRecorder(collector)
	fmt.Fprintf(out, "✓ Elasticsearch client configured (%s)\n", cfg.Elasticsearch.URL)

	store, err := openHistory(cfg)
	if err != nil {
		return err
	}

	runnerOpts := []runner.Option{runner.WithMetrics(collector)}
	var pruner schedule.Pruner
	if store != nil {
		defer store.Close()

		p := retention.NewPruner(store, retention.Config{RetentionDays: cfg.History.RetentionDays})
		p.SetObserver(collector)
		pruner = p

		runnerOpts = append(runnerOpts, runner.WithHistory(store))
		fmt.Fprintf(out, "✓ Run history enabled (%s)\n", cfg.History.Driver)
	}
	r := runner.New(manager, runnerOpts...)

	checker := health.New(0)
	checker.RegisterCheck("elasticsearch", health.PingCheck(client))
	if store != nil {
		checker.RegisterCheck("history", health.PingCheck(store))
	}

	deps := server.Deps{
		Status:  manager,
		Runner:  r,
		History: store,
		Health:  checker,
		Version: health.NewVersionInfo(Version, GitCommit, BuildDate),
		Auth:    auth.NewValidator(cfg.Server.APIKeys),
	}
	if n := deps.Auth.Len(); n > 0 {
		fmt.Fprintf(out, "✓ Action routes require an API key (%d configured)\n", n)
	}
	if cfg.Server.ActionsPerMinute > 0 {
		fmt.Fprintf(out, "✓ Action routes limited to %d request(s) per minute\n", cfg.Server.ActionsPerMinute)
	}
	if cfg.Telemetry.Metrics.Enabled {
		deps.Metrics = collector.Handler()
		fmt.Fprintf(out, "✓ Metrics enabled (%s)\n", cfg.Telemetry.Metrics.Path)
	}
	srv := server.New(cfg.Server, cfg.Telemetry.Metrics.Path, deps)

	d := &daemon{
		ctx:       ctx,
		cfg:       cfg,
		runner:    r,
		pruner:    pruner,
		server:    srv,
		checker:   checker,
		collector: collector,
		logger:    slog.Default().With("component", "main"),
	}
	if err := d.startScheduler(); err != nil {
		return err
	}
	defer d.stopScheduler()
	fmt.Fprintf(out, "✓ Scheduler started (%d job(s))\n", len(d.jobs()))

	reloads, stopReloads := cli.ReloadSignals()
	defer stopReloads()
	go d.reloadOnSignal(reloads)

	if runFlags.watchConfig {
		watcher, err := config.NewWatcher(cfgFile, 0)
		if err != nil {
			return err
		}
		defer watcher.Stop()

		go func() {
			if err := watcher.Watch(ctx, d.reload); err != nil {
				d.logger.Error("config watcher failed", "error", err)
			}
		}()
		fmt.Fprintf(out, "✓ Watching %s for changes\n", cfgFile)
	}

	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	if err := srv.Start(ctx); err != nil {
		return err
	}

	fmt.Fprintln(out, "✓ Shutdown complete")
	return nil
}

// daemon holds the components of "retainer run" that a configuration
// reload replaces.
type daemon struct {
	ctx       context.Context
	runner    *runner.Runner
	pruner    schedule.Pruner
	server    *server.Server
	checker   *health.Checker
	collector *metrics.Collector
	logger    *slog.Logger

	mu        sync.Mutex
	cfg       *config.Config
	scheduler *schedule.Scheduler
}

func (d *daemon) startScheduler() error {
	scheduler, err := buildScheduler(d.cfg, d.runner, d.pruner)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.scheduler = scheduler
	d.scheduler.Start(d.ctx)
	return nil
}

func (d *daemon) stopScheduler() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.scheduler != nil {
		d.scheduler.Stop()
	}
}

func (d *daemon) jobs() []schedule.JobInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scheduler.Jobs()
}

func (d *daemon) reloadOnSignal(signals <-chan os.Signal) {
	for {
		select {
		case <-d.ctx.Done():
			return
		case <-signals:
			d.logger.Info("reload requested by signal")
			next, err := config.Load(cfgFile)
			if err != nil {
				d.logger.Error("config reload rejected, keeping previous configuration", "error", err)
				continue
			}
			d.reload(next)
		}
	}
}

// reload applies next to the running process. Nothing is swapped unless the
// new client and schedules can all be built.
func (d *daemon) reload(next *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()

	manager, client, err := newManager(next)
	if err != nil {
		d.logger.Error("config reload rejected, keeping previous configuration", "error", err)
		return
	}
	client.SetObserver(d.collector)
	manager.SetRecorder(d.collector)

	// Server, history and telemetry are fixed for the life of the process.
	if runFlags.listenAddress != "" {
		next.Server.ListenAddress = runFlags.listenAddress
	}
	pinned := restartRequired(d.cfg, next)
	next.Server = d.cfg.Server
	next.History = d.cfg.History
	next.Telemetry = d.cfg.Telemetry

	scheduler, err := buildScheduler(next, d.runner, d.pruner)
	if err != nil {
		d.logger.Error("config reload rejected, keeping previous configuration", "error", err)
		return
	}

	d.runner.SetLifecycle(manager)
	d.server.SetStatusReader(manager)
	d.checker.RegisterCheck("elasticsearch", health.PingCheck(client))

	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	d.scheduler = scheduler
	d.scheduler.Start(d.ctx)

	for _, section := range pinned {
		d.logger.Warn("configuration change takes effect on restart", "section", section)
	}
	d.cfg = next

	d.logger.Info("configuration applied",
		"prefix", next.Indices.Prefix,
		"retention_days", next.Indices.Days,
		"jobs", len(scheduler.Jobs()),
	)
}

// restartRequired names the changed sections that a reload cannot apply.
func restartRequired(prev, next *config.Config) []string {
	var sections []string
	if !reflect.DeepEqual(prev.Server, next.Server) {
		sections = append(sections, "server")
	}
	if prev.History != next.History {
		sections = append(sections, "history")
	}
	if prev.Telemetry != next.Telemetry {
		sections = append(sections, "telemetry")
	}
	return sections
}
