package config

import (
	"fmt"
	"time"

	"mercator-hq/retainer/pkg/elastic"
	"mercator-hq/retainer/pkg/lifecycle"
	sectls "mercator-hq/retainer/pkg/security/tls"
)

// Config is the root configuration structure for retainer.
type Config struct {
	// Server contains the HTTP status/action server configuration.
	Server ServerConfig `yaml:"server"`

	// Elasticsearch contains the backend address and credentials.
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`

	// Indices contains the managed index prefix and retention policy.
	Indices IndicesConfig `yaml:"indices"`

	// Aliases contains the alias window mapping.
	Aliases AliasesConfig `yaml:"aliases"`

	// Schedule contains cron expressions for the periodic operations.
	Schedule ScheduleConfig `yaml:"schedule"`

	// History contains run history storage configuration.
	History HistoryConfig `yaml:"history"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: ":8001"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Action routes run a full operation before responding.
	// Default: 5m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight
	// requests during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// APIKeys are accepted on the action routes as "Authorization: Bearer
	// <key>" or "X-API-Key: <key>". With no keys the action routes are open.
	APIKeys []string `yaml:"api_keys"`

	// APIKeysFile is a secret file with one API key per line, added to
	// APIKeys at load time.
	APIKeysFile string `yaml:"api_keys_file"`

	// ActionsPerMinute caps POST /actions requests across all callers.
	// Requests over the limit get 429. Zero means unlimited.
	ActionsPerMinute int `yaml:"actions_per_minute"`

	// ActionBurst is how many action requests may arrive back to back
	// before ActionsPerMinute applies. Zero means 1.
	ActionBurst int `yaml:"action_burst"`
}

// ElasticsearchConfig contains the backend connection settings.
type ElasticsearchConfig struct {
	// URL is the cluster base URL. Required.
	URL string `yaml:"url"`

	// Username for basic auth. Required.
	Username string `yaml:"username"`

	// Password for basic auth. Required.
	// This should typically be loaded from an environment variable or
	// from PasswordFile.
	Password string `yaml:"password"`

	// PasswordFile is a secret file holding the password. It is read at
	// load time when Password is empty.
	PasswordFile string `yaml:"password_file"`

	// Timeout bounds each backend request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Default: false
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`

	// TLS sets a private CA, a client certificate and the minimum version.
	TLS sectls.Config `yaml:"tls"`
}

// IndicesConfig describes the managed index family.
type IndicesConfig struct {
	// Prefix is the common prefix of managed index names. Required.
	// Default: "logs"
	Prefix string `yaml:"prefix"`

	// Days is the retention window in days. Required, at least 1.
	// Default: 30
	Days int `yaml:"days"`

	// DeleteBatchSize is the number of indices removed per delete call.
	// Default: 20
	DeleteBatchSize int `yaml:"delete_batch_size"`

	// MaxConcurrency caps in-flight backend calls per fan-out.
	// Default: 8
	MaxConcurrency int `yaml:"max_concurrency"`

	// Exclude lists name fragments of indices that never take part in
	// alias computation.
	// Default: [".kibana"]
	Exclude []string `yaml:"exclude"`

	// Replicas is the optional replica policy. Nil leaves replica counts
	// alone.
	Replicas *ReplicasConfig `yaml:"replicas"`
}

// ReplicasConfig sets Value replicas on every index older than Days.
type ReplicasConfig struct {
	Days  int `yaml:"days"`
	Value int `yaml:"value"`
}

// AliasesConfig maps alias names to their window in days.
type AliasesConfig struct {
	// Mappings is alias name -> window days. When the section is omitted
	// the last_day/last_2days/last_week set is used; an explicit empty
	// mapping manages no aliases.
	Mappings map[string]int `yaml:"mappings"`
}

// ScheduleConfig holds standard five-field cron expressions for the
// periodic operations. The value "off" disables a job.
type ScheduleConfig struct {
	ClearIndices   string `yaml:"clear_indices"`
	UpdateAliases  string `yaml:"update_aliases"`
	UpdateReplicas string `yaml:"update_replicas"`
}

// HistoryConfig contains run history storage settings.
type HistoryConfig struct {
	// Enabled controls whether runs are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Driver selects the storage backend.
	// Options: "sqlite" (pure Go), "sqlite3" (cgo), "memory"
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the database file for the sqlite drivers.
	// Default: "data/history.db"
	Path string `yaml:"path"`

	// RetentionDays is how long runs are kept. A negative value keeps
	// them forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for history pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn or error.
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// RedactCredentials masks passwords, tokens and URL userinfo in logs.
	// Default: true
	RedactCredentials bool `yaml:"redact_credentials"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether /metrics is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "retainer"
	Namespace string `yaml:"namespace"`
}

// Policy converts the index and alias settings into a lifecycle policy.
func (c *Config) Policy() lifecycle.Policy {
	policy := lifecycle.Policy{
		Prefix:          c.Indices.Prefix,
		RetentionDays:   c.Indices.Days,
		DeleteBatchSize: c.Indices.DeleteBatchSize,
		MaxConcurrency:  c.Indices.MaxConcurrency,
		ExcludeIndices:  append([]string(nil), c.Indices.Exclude...),
	}

	if len(c.Aliases.Mappings) > 0 {
		policy.AliasWindows = make(map[string]int, len(c.Aliases.Mappings))
		for alias, days := range c.Aliases.Mappings {
			policy.AliasWindows[alias] = days
		}
	}

	if c.Indices.Replicas != nil {
		policy.Replicas = &lifecycle.ReplicaPolicy{
			Days:  c.Indices.Replicas.Days,
			Value: c.Indices.Replicas.Value,
		}
	}

	return policy
}

// ElasticConfig converts the backend settings into a gateway client config.
// It fails when the configured certificates cannot be loaded.
func (c *Config) ElasticConfig() (elastic.Config, error) {
	tlsConfig, err := c.Elasticsearch.TLS.ClientConfig(c.Elasticsearch.InsecureSkipVerify)
	if err != nil {
		return elastic.Config{}, fmt.Errorf("elasticsearch.tls: %w", err)
	}

	return elastic.Config{
		URL:       c.Elasticsearch.URL,
		Username:  c.Elasticsearch.Username,
		Password:  c.Elasticsearch.Password,
		Timeout:   c.Elasticsearch.Timeout,
		TLSConfig: tlsConfig,
	}, nil
}

// ScheduleDisabled is the schedule value that turns a job off.
const ScheduleDisabled = "off"
