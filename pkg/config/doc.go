// Package config provides configuration management for retainer.
//
// Configuration is read from a YAML file, completed with defaults,
// overridden from the environment and validated before anything talks to
// the backend. A Config value is passed explicitly to the components that
// need it; there is no process-wide instance.
//
// # Configuration Loading
//
//	cfg, err := config.Load("retainer.yaml")
//
// An empty path configures the process from the environment alone.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention RETAINER_SECTION_FIELD.
// For example:
//
//   - RETAINER_INDICES_PREFIX overrides indices.prefix
//   - RETAINER_INDICES_REPLICAS_VALUE overrides indices.replicas.value
//   - RETAINER_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The plain variables ELASTICSEARCH_URL, ELASTICSEARCH_USER,
// ELASTICSEARCH_PASSWORD and PORT are also honoured, with lower precedence
// than their RETAINER_ counterparts.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Validation
//
// Validation errors include field paths:
//
//	configuration validation failed with 2 errors:
//	  - elasticsearch.url: field is required
//	  - indices.days: retention window must be at least 1 day
//
// # Secrets
//
// elasticsearch.password_file and server.api_keys_file name files read at
// load time through the secrets package, which refuses files that are
// group-writable or readable by others. An inline password wins over
// password_file; keys from api_keys_file are appended to api_keys.
//
// # Reloading
//
// Watcher re-runs Load whenever the file changes and hands over the new
// value only when it validates.
//
// # Example Configuration
//
//	elasticsearch:
//	  url: "https://es.internal:9200"
//	  username: "retainer"
//	  password_file: "/run/secrets/es-password"
//	  tls:
//	    ca_file: "/etc/retainer/es-ca.pem"
//
//	indices:
//	  prefix: "logs"
//	  days: 30
//	  replicas:
//	    days: 7
//	    value: 0
//
//	aliases:
//	  mappings:
//	    last_day: 1
//	    last_week: 7
package config
