package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks the plain variables a developer shell may export, so
// tests only see what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PORT", "ELASTICSEARCH_URL", "ELASTICSEARCH_USER", "ELASTICSEARCH_PASSWORD"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retainer.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9000"
  write_timeout: "2m"

elasticsearch:
  url: "https://es.internal:9200"
  username: "retainer"
  password: "secret"
  timeout: "10s"

indices:
  prefix: "events"
  days: 14
  replicas:
    days: 3
    value: 0

aliases:
  mappings:
    last_day: 1
    last_2days: 2

schedule:
  update_replicas: "off"

telemetry:
  logging:
    level: "debug"
    format: "text"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9000", cfg.Server.ListenAddress)
	}
	if cfg.Server.WriteTimeout != 2*time.Minute {
		t.Errorf("expected write timeout %v, got %v", 2*time.Minute, cfg.Server.WriteTimeout)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected default read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if cfg.Elasticsearch.Timeout != 10*time.Second {
		t.Errorf("expected timeout %v, got %v", 10*time.Second, cfg.Elasticsearch.Timeout)
	}
	if cfg.Indices.Prefix != "events" || cfg.Indices.Days != 14 {
		t.Errorf("unexpected indices config: %+v", cfg.Indices)
	}
	if cfg.Indices.DeleteBatchSize != DefaultDeleteBatchSize {
		t.Errorf("expected default batch size %d, got %d", DefaultDeleteBatchSize, cfg.Indices.DeleteBatchSize)
	}
	if cfg.Indices.Replicas == nil || cfg.Indices.Replicas.Days != 3 || cfg.Indices.Replicas.Value != 0 {
		t.Errorf("unexpected replicas config: %+v", cfg.Indices.Replicas)
	}
	if len(cfg.Aliases.Mappings) != 2 {
		t.Errorf("expected configured mappings only, got %v", cfg.Aliases.Mappings)
	}
	if cfg.Schedule.UpdateReplicas != ScheduleDisabled {
		t.Errorf("expected replica schedule to be disabled, got %q", cfg.Schedule.UpdateReplicas)
	}
	if cfg.Schedule.ClearIndices != DefaultClearIndicesSchedule {
		t.Errorf("expected default schedule %q, got %q", DefaultClearIndicesSchedule, cfg.Schedule.ClearIndices)
	}
	if !cfg.History.Enabled {
		t.Error("expected history to stay enabled by default")
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected logging level %q, got %q", "debug", cfg.Telemetry.Logging.Level)
	}
	if !cfg.Telemetry.Logging.RedactCredentials {
		t.Error("expected credential redaction to stay enabled by default")
	}
}

func TestLoad_ExplicitFalseSurvivesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
elasticsearch: {url: "http://localhost:9200", username: "u", password: "p"}
history:
  enabled: false
telemetry:
  metrics:
    enabled: false
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.History.Enabled {
		t.Error("expected history to be disabled")
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be disabled")
	}
}

func TestLoad_EmptyAliasMappingManagesNothing(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
elasticsearch: {url: "http://localhost:9200", username: "u", password: "p"}
aliases:
  mappings: {}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if len(cfg.Aliases.Mappings) != 0 {
		t.Errorf("expected no mappings, got %v", cfg.Aliases.Mappings)
	}
	if cfg.Policy().AliasWindows != nil {
		t.Errorf("expected nil alias windows, got %v", cfg.Policy().AliasWindows)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "indices: [unterminated")

	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoad_MissingRequiredSettings(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
indices:
  days: -1
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}

	want := map[string]bool{
		"elasticsearch.url":      false,
		"elasticsearch.username": false,
		"elasticsearch.password": false,
		"indices.days":           false,
	}
	for _, field := range verr.Fields() {
		if _, ok := want[field]; ok {
			want[field] = true
		}
	}
	for field, seen := range want {
		if !seen {
			t.Errorf("expected error for %s, got %v", field, verr.Fields())
		}
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("ELASTICSEARCH_URL", "http://es:9200")
	t.Setenv("ELASTICSEARCH_USER", "elastic")
	t.Setenv("ELASTICSEARCH_PASSWORD", "changeme")
	t.Setenv("PORT", "8080")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config from environment: %v", err)
	}

	if cfg.Elasticsearch.URL != "http://es:9200" {
		t.Errorf("expected url from environment, got %q", cfg.Elasticsearch.URL)
	}
	if cfg.Elasticsearch.Username != "elastic" || cfg.Elasticsearch.Password != "changeme" {
		t.Errorf("expected credentials from environment, got %q/%q", cfg.Elasticsearch.Username, cfg.Elasticsearch.Password)
	}
	if cfg.Server.ListenAddress != ":8080" {
		t.Errorf("expected listen address %q, got %q", ":8080", cfg.Server.ListenAddress)
	}
	if cfg.Indices.Prefix != DefaultIndexPrefix || cfg.Indices.Days != DefaultRetentionDays {
		t.Errorf("expected default indices config, got %+v", cfg.Indices)
	}
}

func writeSecret(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secret")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write secret file: %v", err)
	}
	return path
}

func TestLoad_SecretFiles(t *testing.T) {
	clearEnv(t)
	passwordFile := writeSecret(t, "from-file\n")
	keysFile := writeSecret(t, "ops-0123456789abcdef\n\nci-0123456789abcdef\n")

	path := writeConfig(t, `
server:
  api_keys: ["inline-0123456789abcdef"]
  api_keys_file: `+keysFile+`
elasticsearch:
  url: http://localhost:9200
  username: elastic
  password_file: `+passwordFile+`
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Elasticsearch.Password != "from-file" {
		t.Errorf("expected password from file, got %q", cfg.Elasticsearch.Password)
	}
	want := []string{"inline-0123456789abcdef", "ops-0123456789abcdef", "ci-0123456789abcdef"}
	if len(cfg.Server.APIKeys) != len(want) {
		t.Fatalf("expected api keys %v, got %v", want, cfg.Server.APIKeys)
	}
	for i := range want {
		if cfg.Server.APIKeys[i] != want[i] {
			t.Errorf("api key %d = %q, want %q", i, cfg.Server.APIKeys[i], want[i])
		}
	}
}

func TestLoad_PasswordWinsOverPasswordFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
elasticsearch:
  url: http://localhost:9200
  username: elastic
  password: inline
  password_file: /nonexistent/secret
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("password file should not be read when a password is set: %v", err)
	}
	if cfg.Elasticsearch.Password != "inline" {
		t.Errorf("expected inline password, got %q", cfg.Elasticsearch.Password)
	}
}

func TestLoad_MissingPasswordFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
elasticsearch:
  url: http://localhost:9200
  username: elastic
  password_file: /nonexistent/secret
`)

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "elasticsearch.password_file") {
		t.Errorf("expected password file error, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"ELASTICSEARCH_URL":                    "http://plain:9200",
		"RETAINER_ELASTICSEARCH_URL":           "http://prefixed:9200",
		"RETAINER_INDICES_PREFIX":              "metrics",
		"RETAINER_INDICES_DAYS":                "7",
		"RETAINER_INDICES_EXCLUDE":             ".kibana, .security ,",
		"RETAINER_INDICES_REPLICAS_VALUE":      "1",
		"RETAINER_HISTORY_ENABLED":             "false",
		"RETAINER_SERVER_SHUTDOWN_TIMEOUT":     "5s",
		"RETAINER_TELEMETRY_METRICS_NAMESPACE": "lifecycle",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	if err := applyEnvOverrides(cfg, lookup); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Elasticsearch.URL != "http://prefixed:9200" {
		t.Errorf("expected RETAINER_ variable to win, got %q", cfg.Elasticsearch.URL)
	}
	if cfg.Indices.Prefix != "metrics" || cfg.Indices.Days != 7 {
		t.Errorf("unexpected indices config: %+v", cfg.Indices)
	}
	if len(cfg.Indices.Exclude) != 2 || cfg.Indices.Exclude[1] != ".security" {
		t.Errorf("unexpected exclude list: %q", cfg.Indices.Exclude)
	}
	if cfg.Indices.Replicas == nil || cfg.Indices.Replicas.Value != 1 || cfg.Indices.Replicas.Days != 0 {
		t.Errorf("expected replica policy from environment, got %+v", cfg.Indices.Replicas)
	}
	if cfg.History.Enabled {
		t.Error("expected history disabled from environment")
	}
	if cfg.Server.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected shutdown timeout 5s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Telemetry.Metrics.Namespace != "lifecycle" {
		t.Errorf("expected namespace override, got %q", cfg.Telemetry.Metrics.Namespace)
	}
}

func TestApplyEnvOverrides_MalformedValues(t *testing.T) {
	env := map[string]string{
		"RETAINER_INDICES_DAYS":            "thirty",
		"RETAINER_HISTORY_ENABLED":         "maybe",
		"RETAINER_ELASTICSEARCH_TIMEOUT":   "soon",
		"RETAINER_INDICES_MAX_CONCURRENCY": "4",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	err := applyEnvOverrides(cfg, lookup)
	if err == nil {
		t.Fatal("expected error for malformed values")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(verr.Errors), verr)
	}
	if cfg.Indices.Days != DefaultRetentionDays {
		t.Errorf("malformed value must not change the field, got %d", cfg.Indices.Days)
	}
	if cfg.Indices.MaxConcurrency != 4 {
		t.Errorf("well-formed values still apply, got %d", cfg.Indices.MaxConcurrency)
	}
}

func TestConfig_Policy(t *testing.T) {
	cfg := Default()
	cfg.Indices.Replicas = &ReplicasConfig{Days: 2, Value: 1}

	policy := cfg.Policy()

	if policy.Prefix != DefaultIndexPrefix || policy.RetentionDays != DefaultRetentionDays {
		t.Errorf("unexpected policy: %+v", policy)
	}
	if policy.AliasWindows["last_week"] != 7 {
		t.Errorf("expected default alias windows, got %v", policy.AliasWindows)
	}
	if policy.Replicas == nil || policy.Replicas.Days != 2 || policy.Replicas.Value != 1 {
		t.Errorf("unexpected replica policy: %+v", policy.Replicas)
	}

	// The policy must not alias the config's maps and slices.
	policy.AliasWindows["last_week"] = 1
	policy.ExcludeIndices[0] = "changed"
	if cfg.Aliases.Mappings["last_week"] != 7 || cfg.Indices.Exclude[0] != ".kibana" {
		t.Error("policy shares state with the config")
	}
}

func TestConfig_ElasticConfig(t *testing.T) {
	cfg := Default()
	cfg.Elasticsearch.URL = "https://es.internal:9200"
	cfg.Elasticsearch.Username = "elastic"
	cfg.Elasticsearch.Password = "secret"
	cfg.Elasticsearch.InsecureSkipVerify = true

	elasticCfg, err := cfg.ElasticConfig()
	if err != nil {
		t.Fatalf("ElasticConfig failed: %v", err)
	}
	if elasticCfg.URL != cfg.Elasticsearch.URL || elasticCfg.Username != "elastic" || elasticCfg.Password != "secret" {
		t.Errorf("unexpected client config: %+v", elasticCfg)
	}
	if elasticCfg.TLSConfig == nil || !elasticCfg.TLSConfig.InsecureSkipVerify {
		t.Errorf("expected TLS config with verification disabled, got %+v", elasticCfg.TLSConfig)
	}
}

func TestConfig_ElasticConfig_MissingCA(t *testing.T) {
	cfg := Default()
	cfg.Elasticsearch.URL = "https://es.internal:9200"
	cfg.Elasticsearch.TLS.CAFile = filepath.Join(t.TempDir(), "missing-ca.pem")

	_, err := cfg.ElasticConfig()
	if err == nil || !strings.Contains(err.Error(), "elasticsearch.tls") {
		t.Errorf("expected elasticsearch.tls error, got %v", err)
	}
}
