package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mercator-hq/retainer/pkg/security/secrets"
)

// EnvPrefix is the prefix of every RETAINER_SECTION_FIELD override.
const EnvPrefix = "RETAINER_"

// Load reads configuration from the YAML file at path, applies defaults and
// environment variable overrides, and validates the result.
//
// The loading sequence is:
// 1. Load YAML from file (skipped when path is empty)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
//
// An empty path configures the process from the environment alone.
func Load(path string) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse runs every step of Load except validation. It is used by
// "retainer validate" to report all problems at once.
func Parse(path string) (*Config, error) {
	cfg := &Config{}
	presetSwitches(cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := applyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := resolveSecrets(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveSecrets reads the configured secret files. An explicit password
// wins over the password file; keys from the API key file are added to the
// listed keys.
func resolveSecrets(cfg *Config) error {
	if cfg.Elasticsearch.Password == "" && cfg.Elasticsearch.PasswordFile != "" {
		password, err := secrets.ReadFile(cfg.Elasticsearch.PasswordFile)
		if err != nil {
			return fmt.Errorf("elasticsearch.password_file: %w", err)
		}
		cfg.Elasticsearch.Password = password
	}

	if cfg.Server.APIKeysFile != "" {
		content, err := secrets.ReadFile(cfg.Server.APIKeysFile)
		if err != nil {
			return fmt.Errorf("server.api_keys_file: %w", err)
		}
		for _, line := range strings.Split(content, "\n") {
			if key := strings.TrimSpace(line); key != "" {
				cfg.Server.APIKeys = append(cfg.Server.APIKeys, key)
			}
		}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

// applyEnvOverrides applies environment variable overrides to the
// configuration. The unprefixed ELASTICSEARCH_URL, ELASTICSEARCH_USER,
// ELASTICSEARCH_PASSWORD and PORT are honoured first; RETAINER_SECTION_FIELD
// variables win over them. Malformed values are reported rather than
// silently ignored.
func applyEnvOverrides(cfg *Config, lookup lookupFunc) error {
	env := envReader{lookup: lookup}

	// Plain names
	env.str("ELASTICSEARCH_URL", &cfg.Elasticsearch.URL)
	env.str("ELASTICSEARCH_USER", &cfg.Elasticsearch.Username)
	env.str("ELASTICSEARCH_PASSWORD", &cfg.Elasticsearch.Password)
	if port, ok := env.get("PORT"); ok {
		cfg.Server.ListenAddress = ":" + port
	}

	// Server overrides
	env.str(EnvPrefix+"SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	env.duration(EnvPrefix+"SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	env.duration(EnvPrefix+"SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	env.duration(EnvPrefix+"SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	env.list(EnvPrefix+"SERVER_API_KEYS", &cfg.Server.APIKeys)
	env.str(EnvPrefix+"SERVER_API_KEYS_FILE", &cfg.Server.APIKeysFile)
	env.integer(EnvPrefix+"SERVER_ACTIONS_PER_MINUTE", &cfg.Server.ActionsPerMinute)
	env.integer(EnvPrefix+"SERVER_ACTION_BURST", &cfg.Server.ActionBurst)

	// Elasticsearch overrides
	env.str(EnvPrefix+"ELASTICSEARCH_URL", &cfg.Elasticsearch.URL)
	env.str(EnvPrefix+"ELASTICSEARCH_USERNAME", &cfg.Elasticsearch.Username)
	env.str(EnvPrefix+"ELASTICSEARCH_PASSWORD", &cfg.Elasticsearch.Password)
	env.str(EnvPrefix+"ELASTICSEARCH_PASSWORD_FILE", &cfg.Elasticsearch.PasswordFile)
	env.duration(EnvPrefix+"ELASTICSEARCH_TIMEOUT", &cfg.Elasticsearch.Timeout)
	env.boolean(EnvPrefix+"ELASTICSEARCH_INSECURE_SKIP_VERIFY", &cfg.Elasticsearch.InsecureSkipVerify)
	env.str(EnvPrefix+"ELASTICSEARCH_TLS_CA_FILE", &cfg.Elasticsearch.TLS.CAFile)
	env.str(EnvPrefix+"ELASTICSEARCH_TLS_CERT_FILE", &cfg.Elasticsearch.TLS.CertFile)
	env.str(EnvPrefix+"ELASTICSEARCH_TLS_KEY_FILE", &cfg.Elasticsearch.TLS.KeyFile)
	env.str(EnvPrefix+"ELASTICSEARCH_TLS_MIN_VERSION", &cfg.Elasticsearch.TLS.MinVersion)

	// Indices overrides
	env.str(EnvPrefix+"INDICES_PREFIX", &cfg.Indices.Prefix)
	env.integer(EnvPrefix+"INDICES_DAYS", &cfg.Indices.Days)
	env.integer(EnvPrefix+"INDICES_DELETE_BATCH_SIZE", &cfg.Indices.DeleteBatchSize)
	env.integer(EnvPrefix+"INDICES_MAX_CONCURRENCY", &cfg.Indices.MaxConcurrency)
	env.list(EnvPrefix+"INDICES_EXCLUDE", &cfg.Indices.Exclude)

	// Setting either replica variable enables the replica policy
	_, hasDays := env.get(EnvPrefix + "INDICES_REPLICAS_DAYS")
	_, hasValue := env.get(EnvPrefix + "INDICES_REPLICAS_VALUE")
	if (hasDays || hasValue) && cfg.Indices.Replicas == nil {
		cfg.Indices.Replicas = &ReplicasConfig{}
	}
	if cfg.Indices.Replicas != nil {
		env.integer(EnvPrefix+"INDICES_REPLICAS_DAYS", &cfg.Indices.Replicas.Days)
		env.integer(EnvPrefix+"INDICES_REPLICAS_VALUE", &cfg.Indices.Replicas.Value)
	}

	// Schedule overrides
	env.str(EnvPrefix+"SCHEDULE_CLEAR_INDICES", &cfg.Schedule.ClearIndices)
	env.str(EnvPrefix+"SCHEDULE_UPDATE_ALIASES", &cfg.Schedule.UpdateAliases)
	env.str(EnvPrefix+"SCHEDULE_UPDATE_REPLICAS", &cfg.Schedule.UpdateReplicas)

	// History overrides
	env.boolean(EnvPrefix+"HISTORY_ENABLED", &cfg.History.Enabled)
	env.str(EnvPrefix+"HISTORY_DRIVER", &cfg.History.Driver)
	env.str(EnvPrefix+"HISTORY_PATH", &cfg.History.Path)
	env.integer(EnvPrefix+"HISTORY_RETENTION_DAYS", &cfg.History.RetentionDays)
	env.str(EnvPrefix+"HISTORY_PRUNE_SCHEDULE", &cfg.History.PruneSchedule)

	// Telemetry overrides
	env.str(EnvPrefix+"TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	env.str(EnvPrefix+"TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	env.boolean(EnvPrefix+"TELEMETRY_LOGGING_REDACT_CREDENTIALS", &cfg.Telemetry.Logging.RedactCredentials)
	env.boolean(EnvPrefix+"TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	env.str(EnvPrefix+"TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	env.str(EnvPrefix+"TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)

	if len(env.errs) > 0 {
		return ValidationError{Errors: env.errs}
	}
	return nil
}

// envReader applies typed overrides and collects parse failures.
type envReader struct {
	lookup lookupFunc
	errs   []FieldError
}

func (r *envReader) get(key string) (string, bool) {
	val, ok := r.lookup(key)
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func (r *envReader) str(key string, dst *string) {
	if val, ok := r.get(key); ok {
		*dst = val
	}
}

func (r *envReader) list(key string, dst *[]string) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func (r *envReader) integer(key string, dst *int) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		r.fail(key, val, "an integer")
		return
	}
	*dst = i
}

func (r *envReader) boolean(key string, dst *bool) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		r.fail(key, val, "a boolean")
		return
	}
	*dst = b
}

func (r *envReader) duration(key string, dst *time.Duration) {
	val, ok := r.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		r.fail(key, val, "a duration")
		return
	}
	*dst = d
}

func (r *envReader) fail(key, val, want string) {
	r.errs = append(r.errs, FieldError{
		Field:   key,
		Message: fmt.Sprintf("invalid value %q: must be %s", val, want),
	})
}

// IsValidationError reports whether err carries configuration field errors.
func IsValidationError(err error) bool {
	var verr ValidationError
	return errors.As(err, &verr)
}
