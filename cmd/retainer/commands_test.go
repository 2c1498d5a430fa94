package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"mercator-hq/retainer/pkg/cli"
	"mercator-hq/retainer/pkg/config"
	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/runner"
	"mercator-hq/retainer/pkg/server"
	"mercator-hq/retainer/pkg/telemetry/health"
	"mercator-hq/retainer/pkg/telemetry/metrics"
)

// executeCommand runs the root command with args and returns its output.
// Global flag values are restored afterwards.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	origConfig, origOutput, origVerbose := cfgFile, outputFormat, verbose
	t.Cleanup(func() {
		cfgFile, outputFormat, verbose = origConfig, origOutput, origVerbose
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	buf := &bytes.Buffer{}
	rootCmd.SetArgs(args)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)

	err := rootCmd.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retainer.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Elasticsearch.URL = "http://127.0.0.1:9200"
	cfg.Elasticsearch.Username = "elastic"
	cfg.Elasticsearch.Password = "changeme"
	cfg.History.Enabled = false
	return cfg
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{
		"aliases", "clear-indices", "history", "indices", "run", "schedule",
		"settings", "update-aliases", "update-replicas", "validate", "version",
	}

	var got []string
	for _, cmd := range rootCmd.Commands() {
		got = append(got, cmd.Name())
	}

	for _, name := range want {
		if !slices.Contains(got, name) {
			t.Errorf("command %q is not registered (have %v)", name, got)
		}
	}
}

func TestActionCommandsHaveDryRun(t *testing.T) {
	for _, op := range runner.Operations() {
		cmd, _, err := rootCmd.Find([]string{op.Slug()})
		if err != nil {
			t.Fatalf("find %s: %v", op.Slug(), err)
		}
		if cmd.Flags().Lookup("dry-run") == nil {
			t.Errorf("%s has no --dry-run flag", op.Slug())
		}
		if cmd.Short == "" {
			t.Errorf("%s has no description", op.Slug())
		}
	}
}

func TestValidateCommand(t *testing.T) {
	path := writeConfig(t, `
elasticsearch:
  url: http://localhost:9200
  username: elastic
  password: changeme
indices:
  prefix: logs
  days: 14
  replicas: {days: 3, value: 0}
history:
  enabled: false
`)

	out, err := executeCommand(t, "validate", "--config", path)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	for _, want := range []string{"Configuration is valid", "logs-YYYY.MM.DD, 14 day(s)", "last_week -> last 7 day(s)", "History:  disabled"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidateCommand_ExitCodes(t *testing.T) {
	invalid := writeConfig(t, `
indices:
  prefix: logs
  days: -1
`)
	malformed := writeConfig(t, "indices: [")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"invalid fields", []string{"validate", "--config", invalid}, cli.ExitConfig},
		{"malformed yaml", []string{"validate", "--config", malformed}, cli.ExitConfig},
		{"missing file", []string{"validate", "--config", filepath.Join(t.TempDir(), "missing.yaml")}, cli.ExitConfig},
		{"bad output format", []string{"version", "-o", "xml"}, cli.ExitUsage},
		{"unknown flag", []string{"version", "--no-such-flag"}, cli.ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if got := cli.ExitCode(err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d (err: %v)", got, tt.want, err)
			}
		})
	}
}

type fakePlanSource struct {
	policy  lifecycle.Policy
	indices []string
	aliases lifecycle.AliasState
	err     error
}

func (f *fakePlanSource) Policy() lifecycle.Policy { return f.policy }

func (f *fakePlanSource) ListIndices(context.Context) ([]string, error) {
	return f.indices, f.err
}

func (f *fakePlanSource) ListAliases(context.Context) (lifecycle.AliasState, error) {
	return f.aliases, f.err
}

func TestBuildPlan(t *testing.T) {
	now := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.Local)
	src := &fakePlanSource{
		policy: lifecycle.Policy{
			Prefix:        "logs",
			RetentionDays: 2,
			AliasWindows:  map[string]int{"last_day": 1},
			Replicas:      &lifecycle.ReplicaPolicy{Days: 1, Value: 0},
		},
		indices: []string{".kibana", "logs-2024.01.01", "logs-2024.01.02", "logs-2024.01.03"},
		aliases: lifecycle.AliasState{"last_day": {"logs-2024.01.02"}},
	}

	deletes, err := buildPlan(context.Background(), src, runner.ClearIndices, now)
	if err != nil {
		t.Fatalf("clear-indices plan: %v", err)
	}
	if got := deletes.([]string); !slices.Equal(got, []string{"logs-2024.01.01"}) {
		t.Errorf("deletes = %v", got)
	}

	actions, err := buildPlan(context.Background(), src, runner.UpdateAliases, now)
	if err != nil {
		t.Fatalf("update-aliases plan: %v", err)
	}
	want := []lifecycle.AliasAction{
		lifecycle.RemoveAlias("logs-2024.01.02", "last_day"),
		lifecycle.AddAlias("logs-2024.01.03", "last_day"),
	}
	gotJSON, _ := json.Marshal(actions)
	wantJSON, _ := json.Marshal(want)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("actions = %s, want %s", gotJSON, wantJSON)
	}

	replicas, err := buildPlan(context.Background(), src, runner.UpdateReplicas, now)
	if err != nil {
		t.Fatalf("update-replicas plan: %v", err)
	}
	if got := replicas.([]string); !slices.Equal(got, []string{"logs-2024.01.01", "logs-2024.01.02"}) {
		t.Errorf("replica candidates = %v", got)
	}
}

func TestBuildPlan_NothingToDo(t *testing.T) {
	now := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.Local)
	src := &fakePlanSource{
		policy:  lifecycle.Policy{Prefix: "logs", RetentionDays: 30},
		indices: []string{"logs-2024.01.03"},
		aliases: lifecycle.AliasState{},
	}

	for _, op := range runner.Operations() {
		plan, err := buildPlan(context.Background(), src, op, now)
		if err != nil {
			t.Fatalf("%s plan: %v", op, err)
		}
		out, _ := json.Marshal(plan)
		if string(out) != "[]" {
			t.Errorf("%s plan = %s, want []", op, out)
		}
	}
}

func TestBuildPlan_BackendError(t *testing.T) {
	boom := errors.New("connection refused")
	src := &fakePlanSource{policy: lifecycle.Policy{Prefix: "logs", RetentionDays: 1}, err: boom}

	if _, err := buildPlan(context.Background(), src, runner.ClearIndices, time.Now()); !errors.Is(err, boom) {
		t.Errorf("expected backend error, got %v", err)
	}
}

func TestDecodeResult(t *testing.T) {
	run := &history.Run{ID: "run-1", Result: json.RawMessage(`{"logs-2024.01.01":{"shards":1,"replicas":0}}`)}

	result, err := decodeResult(runner.UpdateReplicas, run)
	if err != nil {
		t.Fatalf("decodeResult: %v", err)
	}
	settings, ok := result.(map[string]lifecycle.IndexSettings)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if settings["logs-2024.01.01"].Shards != 1 {
		t.Errorf("unexpected settings: %+v", settings)
	}

	if _, err := decodeResult(runner.ClearIndices, &history.Run{ID: "run-2", Result: json.RawMessage(`{`)}); err == nil {
		t.Error("expected decode error")
	}
}

func TestRestartRequired(t *testing.T) {
	prev := testConfig()
	next := testConfig()
	next.Indices.Days = 7
	next.Schedule.ClearIndices = config.ScheduleDisabled

	if got := restartRequired(prev, next); len(got) != 0 {
		t.Errorf("policy and schedule changes apply live, got %v", got)
	}

	next.Server.ListenAddress = ":9000"
	next.Telemetry.Logging.Level = "debug"
	if got := restartRequired(prev, next); !slices.Equal(got, []string{"server", "telemetry"}) {
		t.Errorf("restartRequired() = %v", got)
	}
}

func TestDaemonReload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	manager, _, err := newManager(cfg)
	if err != nil {
		t.Fatalf("newManager: %v", err)
	}
	r := runner.New(manager)
	checker := health.New(0)

	d := &daemon{
		ctx:       ctx,
		cfg:       cfg,
		runner:    r,
		server:    server.New(cfg.Server, "", server.Deps{Status: manager, Runner: r, Health: checker}),
		checker:   checker,
		collector: metrics.NewCollector(cfg.Telemetry.Metrics, nil),
		logger:    slog.Default(),
	}
	if err := d.startScheduler(); err != nil {
		t.Fatalf("startScheduler: %v", err)
	}
	defer d.stopScheduler()

	if got := len(d.jobs()); got != 3 {
		t.Fatalf("expected 3 jobs before reload, got %d", got)
	}

	next := testConfig()
	next.Schedule.UpdateReplicas = config.ScheduleDisabled
	next.Indices.Prefix = "audit"
	next.Server.ListenAddress = ":9999"
	d.reload(next)

	jobs := d.jobs()
	if len(jobs) != 2 {
		t.Errorf("expected 2 jobs after reload, got %+v", jobs)
	}
	if d.cfg.Indices.Prefix != "audit" {
		t.Errorf("policy change was not applied")
	}
	if d.cfg.Server.ListenAddress != cfg.Server.ListenAddress {
		t.Errorf("server section must not change on reload, got %q", d.cfg.Server.ListenAddress)
	}
	if checks := checker.ListChecks(); !slices.Equal(checks, []string{"elasticsearch"}) {
		t.Errorf("unexpected health checks %v", checks)
	}
}
