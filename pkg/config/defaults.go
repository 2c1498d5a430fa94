package config

import (
	"time"

	"mercator-hq/retainer/pkg/lifecycle"
)

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":8001"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 30 * time.Second

	// Elasticsearch defaults
	DefaultElasticsearchTimeout = 30 * time.Second

	// Indices defaults
	DefaultIndexPrefix     = "logs"
	DefaultRetentionDays   = 30
	DefaultDeleteBatchSize = lifecycle.DefaultDeleteBatchSize
	DefaultMaxConcurrency  = lifecycle.DefaultMaxConcurrency

	// Schedule defaults
	DefaultClearIndicesSchedule   = "0 1 * * *"
	DefaultUpdateAliasesSchedule  = "5 0 * * *"
	DefaultUpdateReplicasSchedule = "30 1 * * *"

	// History defaults
	DefaultHistoryEnabled       = true
	DefaultHistoryDriver        = "sqlite"
	DefaultHistoryPath          = "data/history.db"
	DefaultHistoryRetentionDays = 30
	DefaultHistoryPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel      = "info"
	DefaultLoggingFormat     = "json"
	DefaultRedactCredentials = true
	DefaultMetricsEnabled    = true
	DefaultMetricsPath       = "/metrics"
	DefaultMetricsNamespace  = "retainer"
)

// DefaultExclude lists the index name fragments excluded from alias
// computation when none are configured.
func DefaultExclude() []string {
	return []string{".kibana"}
}

// DefaultAliasMappings returns the alias windows used when the aliases
// section is omitted.
func DefaultAliasMappings() map[string]int {
	return map[string]int{
		"last_day":   1,
		"last_2days": 2,
		"last_week":  7,
	}
}

// Default returns a configuration with every default applied. The result
// still fails validation until the Elasticsearch URL and credentials are set.
func Default() *Config {
	cfg := &Config{}
	presetSwitches(cfg)
	ApplyDefaults(cfg)
	return cfg
}

// presetSwitches sets the boolean defaults before YAML is decoded over the
// config, since a false zero value cannot be told apart from an explicit
// false afterwards.
func presetSwitches(cfg *Config) {
	cfg.History.Enabled = DefaultHistoryEnabled
	cfg.Telemetry.Logging.RedactCredentials = DefaultRedactCredentials
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Elasticsearch defaults
	if cfg.Elasticsearch.Timeout == 0 {
		cfg.Elasticsearch.Timeout = DefaultElasticsearchTimeout
	}

	// Indices defaults
	if cfg.Indices.Prefix == "" {
		cfg.Indices.Prefix = DefaultIndexPrefix
	}
	if cfg.Indices.Days == 0 {
		cfg.Indices.Days = DefaultRetentionDays
	}
	if cfg.Indices.DeleteBatchSize == 0 {
		cfg.Indices.DeleteBatchSize = DefaultDeleteBatchSize
	}
	if cfg.Indices.MaxConcurrency == 0 {
		cfg.Indices.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.Indices.Exclude == nil {
		cfg.Indices.Exclude = DefaultExclude()
	}

	// Alias defaults only apply when no mapping was given at all
	if cfg.Aliases.Mappings == nil {
		cfg.Aliases.Mappings = DefaultAliasMappings()
	}

	// Schedule defaults
	if cfg.Schedule.ClearIndices == "" {
		cfg.Schedule.ClearIndices = DefaultClearIndicesSchedule
	}
	if cfg.Schedule.UpdateAliases == "" {
		cfg.Schedule.UpdateAliases = DefaultUpdateAliasesSchedule
	}
	if cfg.Schedule.UpdateReplicas == "" {
		cfg.Schedule.UpdateReplicas = DefaultUpdateReplicasSchedule
	}

	// History defaults
	if cfg.History.Driver == "" {
		cfg.History.Driver = DefaultHistoryDriver
	}
	if cfg.History.Path == "" {
		cfg.History.Path = DefaultHistoryPath
	}
	if cfg.History.RetentionDays == 0 {
		cfg.History.RetentionDays = DefaultHistoryRetentionDays
	}
	if cfg.History.PruneSchedule == "" {
		cfg.History.PruneSchedule = DefaultHistoryPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
}
