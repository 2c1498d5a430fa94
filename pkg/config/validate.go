package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"

	sectls "mercator-hq/retainer/pkg/security/tls"
)

// MinAPIKeyLength is the shortest accepted API key.
const MinAPIKeyLength = 16

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "indices.prefix").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Fields returns the dotted paths of every failing field.
func (e ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		fields = append(fields, err.Field)
	}
	return fields
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateElasticsearch(&cfg.Elasticsearch)...)
	errs = append(errs, validateIndices(&cfg.Indices)...)
	errs = append(errs, validateAliases(&cfg.Aliases)...)
	errs = append(errs, validateSchedule(&cfg.Schedule)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout must be positive",
		})
	}
	if cfg.ActionsPerMinute < 0 {
		errs = append(errs, FieldError{
			Field:   "server.actions_per_minute",
			Message: "actions per minute cannot be negative",
		})
	}
	if cfg.ActionBurst < 0 {
		errs = append(errs, FieldError{
			Field:   "server.action_burst",
			Message: "action burst cannot be negative",
		})
	}
	for i, key := range cfg.APIKeys {
		if len(key) < MinAPIKeyLength {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("server.api_keys[%d]", i),
				Message: fmt.Sprintf("API key must be at least %d characters", MinAPIKeyLength),
			})
		}
	}

	return errs
}

// validateElasticsearch checks the settings without which the core cannot
// operate at all.
func validateElasticsearch(cfg *ElasticsearchConfig) []FieldError {
	var errs []FieldError

	if cfg.URL == "" {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.url",
			Message: "field is required",
		})
	} else if u, err := url.Parse(cfg.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.url",
			Message: fmt.Sprintf("invalid URL %q: must be an absolute http or https URL", cfg.URL),
		})
	}

	if cfg.Username == "" {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.username",
			Message: "field is required",
		})
	}
	if cfg.Password == "" {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.password",
			Message: "field is required",
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.timeout",
			Message: "timeout must be positive",
		})
	}
	if _, err := sectls.ParseVersion(cfg.TLS.MinVersion); err != nil {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.tls.min_version",
			Message: err.Error(),
		})
	}
	if (cfg.TLS.CertFile == "") != (cfg.TLS.KeyFile == "") {
		errs = append(errs, FieldError{
			Field:   "elasticsearch.tls.cert_file",
			Message: "cert_file and key_file must be set together",
		})
	}

	return errs
}

func validateIndices(cfg *IndicesConfig) []FieldError {
	var errs []FieldError

	if cfg.Prefix == "" {
		errs = append(errs, FieldError{
			Field:   "indices.prefix",
			Message: "field is required",
		})
	} else if strings.ContainsAny(cfg.Prefix, ",/*") {
		errs = append(errs, FieldError{
			Field:   "indices.prefix",
			Message: fmt.Sprintf("invalid prefix %q: must not contain ',', '/' or '*'", cfg.Prefix),
		})
	}

	if cfg.Days < 1 {
		errs = append(errs, FieldError{
			Field:   "indices.days",
			Message: "retention window must be at least 1 day",
		})
	}
	if cfg.DeleteBatchSize < 1 {
		errs = append(errs, FieldError{
			Field:   "indices.delete_batch_size",
			Message: "delete batch size must be at least 1",
		})
	}
	if cfg.MaxConcurrency < 1 {
		errs = append(errs, FieldError{
			Field:   "indices.max_concurrency",
			Message: "max concurrency must be at least 1",
		})
	}

	if cfg.Replicas != nil {
		if cfg.Replicas.Days < 0 {
			errs = append(errs, FieldError{
				Field:   "indices.replicas.days",
				Message: "replica window must be non-negative",
			})
		}
		if cfg.Replicas.Value < 0 {
			errs = append(errs, FieldError{
				Field:   "indices.replicas.value",
				Message: "replica count must be non-negative",
			})
		}
	}

	return errs
}

func validateAliases(cfg *AliasesConfig) []FieldError {
	var errs []FieldError

	for alias, days := range cfg.Mappings {
		if strings.TrimSpace(alias) == "" {
			errs = append(errs, FieldError{
				Field:   "aliases.mappings",
				Message: "alias name must not be empty",
			})
			continue
		}
		if days < 0 {
			errs = append(errs, FieldError{
				Field:   "aliases.mappings." + alias,
				Message: "alias window must be non-negative",
			})
		}
	}
	sortFieldErrors(errs)

	return errs
}

func validateSchedule(cfg *ScheduleConfig) []FieldError {
	var errs []FieldError

	for field, spec := range map[string]string{
		"schedule.clear_indices":   cfg.ClearIndices,
		"schedule.update_aliases":  cfg.UpdateAliases,
		"schedule.update_replicas": cfg.UpdateReplicas,
	} {
		if err := validateCron(spec); err != nil {
			errs = append(errs, FieldError{Field: field, Message: err.Error()})
		}
	}
	sortFieldErrors(errs)

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Driver {
	case "sqlite", "sqlite3":
		if cfg.Path == "" {
			errs = append(errs, FieldError{
				Field:   "history.path",
				Message: "path is required for the sqlite drivers",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "history.driver",
			Message: fmt.Sprintf("invalid driver %q: must be 'sqlite', 'sqlite3', or 'memory'", cfg.Driver),
		})
	}

	if err := validateCron(cfg.PruneSchedule); err != nil {
		errs = append(errs, FieldError{Field: "history.prune_schedule", Message: err.Error()})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	return errs
}

// validateCron accepts a standard five-field expression or ScheduleDisabled.
func validateCron(spec string) error {
	if spec == ScheduleDisabled {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// sortFieldErrors orders errors collected from map iteration.
func sortFieldErrors(errs []FieldError) {
	slices.SortStableFunc(errs, func(a, b FieldError) int {
		return strings.Compare(a.Field, b.Field)
	})
}
