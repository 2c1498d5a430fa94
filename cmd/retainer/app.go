package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/elastic"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/history/storage"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/telemetry/logging"
)

// loadConfig loads and validates the configuration and installs the
// configured logger. Nothing touches the cluster before this succeeds.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if config.IsValidationError(err) {
			return nil, err
		}
		return nil, cli.NewConfigError(cfgFile, err)
	}

	if err := setupLogging(cfg); err != nil {
		return nil, cli.NewConfigError(cfgFile, err)
	}
	return cfg, nil
}

func setupLogging(cfg *config.Config) error {
	logCfg := logging.Config{
		Level:             cfg.Telemetry.Logging.Level,
		Format:            cfg.Telemetry.Logging.Format,
		RedactCredentials: cfg.Telemetry.Logging.RedactCredentials,
	}
	if verbose {
		logCfg.Level = "debug"
	}

	_, err := logging.Setup(logCfg)
	return err
}

// newClient builds the backend client. Certificates that expire soon are
// logged.
func newClient(cfg *config.Config) (*elastic.Client, error) {
	for _, warning := range cfg.Elasticsearch.TLS.ExpiryWarnings(time.Now()) {
		slog.Warn("elasticsearch TLS certificate expires soon", "warning", warning)
	}

	elasticCfg, err := cfg.ElasticConfig()
	if err != nil {
		return nil, err
	}

	client, err := elastic.NewClient(elasticCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return client, nil
}

// newManager builds the backend client and the lifecycle manager over it.
func newManager(cfg *config.Config) (*lifecycle.Manager, *elastic.Client, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return lifecycle.NewManager(client, cfg.Policy()), client, nil
}

// openHistory opens the configured run history store, or returns nil when
// history is disabled.
func openHistory(cfg *config.Config) (history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}

	store, err := storage.Open(cfg.History.Driver, cfg.History.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return store, nil
}

// requireHistory is openHistory for commands that cannot work without it.
func requireHistory(cfg *config.Config) (history.Store, error) {
	if !cfg.History.Enabled {
		return nil, cli.NewUsageError("run history is disabled (history.enabled is false)")
	}
	return openHistory(cfg)
}

// printResult writes data to the command's output in the --output format.
func printResult(cmd *cobra.Command, data any) error {
	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
}
