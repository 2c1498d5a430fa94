package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/schedule"
)

func fields(output string) [][]string {
	var lines [][]string
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		lines = append(lines, strings.Fields(line))
	}
	return lines
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseOutputFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseOutputFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if ExitCode(err) != ExitUsage {
					t.Errorf("expected usage error, got %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseOutputFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTextFormatter_Indices(t *testing.T) {
	buf := &bytes.Buffer{}

	err := (&TextFormatter{}).FormatTo(buf, []string{"logs-2024.01.02", "logs-2024.01.03"})
	if err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	want := "INDEX\nlogs-2024.01.02\nlogs-2024.01.03\n"
	if buf.String() != want {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), want)
	}
}

func TestTextFormatter_Settings(t *testing.T) {
	buf := &bytes.Buffer{}
	settings := map[string]lifecycle.IndexSettings{
		"logs-2024.01.03": {Shards: 5, Replicas: 1},
		"logs-2024.01.01": {Shards: 5, Replicas: 0},
	}

	if err := (&TextFormatter{}).FormatTo(buf, settings); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	got := fields(buf.String())
	want := [][]string{
		{"INDEX", "SHARDS", "REPLICAS"},
		{"logs-2024.01.01", "5", "0"},
		{"logs-2024.01.03", "5", "1"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d lines, got %d:\n%s", len(want), len(got), buf.String())
	}
	for i := range want {
		if strings.Join(got[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("line %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTextFormatter_Aliases(t *testing.T) {
	buf := &bytes.Buffer{}
	state := lifecycle.AliasState{
		"last_week": {"logs-2024.01.02", "logs-2024.01.03"},
		"last_day":  {"logs-2024.01.03"},
	}

	if err := (&TextFormatter{}).FormatTo(buf, state); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	got := fields(buf.String())
	if len(got) != 3 || got[1][0] != "last_day" || got[2][1] != "logs-2024.01.02,logs-2024.01.03" {
		t.Errorf("unexpected alias table:\n%s", buf.String())
	}
}

func TestTextFormatter_AliasActions(t *testing.T) {
	buf := &bytes.Buffer{}
	actions := []lifecycle.AliasAction{
		lifecycle.RemoveAlias("logs-2024.01.01", "last_day"),
		lifecycle.AddAlias("logs-2024.01.03", "last_day"),
	}

	if err := (&TextFormatter{}).FormatTo(buf, actions); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	got := fields(buf.String())
	want := [][]string{
		{"ACTION", "INDEX", "ALIAS"},
		{"remove", "logs-2024.01.01", "last_day"},
		{"add", "logs-2024.01.03", "last_day"},
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected action table:\n%s", buf.String())
	}
	for i := range want {
		if strings.Join(got[i], " ") != strings.Join(want[i], " ") {
			t.Errorf("row %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestTextFormatter_Jobs(t *testing.T) {
	buf := &bytes.Buffer{}
	jobs := []schedule.JobInfo{
		{Name: "clear_indices", Spec: "0 1 * * *"},
	}

	if err := (&TextFormatter{}).FormatTo(buf, jobs); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	if !strings.Contains(buf.String(), "0 1 * * *") || !strings.HasSuffix(strings.TrimSpace(buf.String()), "-") {
		t.Errorf("unexpected job table:\n%s", buf.String())
	}
}

func TestTextFormatter_Fallback(t *testing.T) {
	buf := &bytes.Buffer{}

	if err := (&TextFormatter{}).FormatTo(buf, "test message"); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	if buf.String() != "test message\n" {
		t.Errorf("FormatTo() = %q, want %q", buf.String(), "test message\n")
	}
}

func TestJSONFormatter(t *testing.T) {
	buf := &bytes.Buffer{}
	data := lifecycle.AliasState{"last_day": {"logs-2024.01.03"}}

	if err := NewFormatter(FormatJSON).FormatTo(buf, data); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	var decoded map[string][]string
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["last_day"][0] != "logs-2024.01.03" {
		t.Errorf("unexpected JSON output: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

func TestCSVFormatter_Runs(t *testing.T) {
	buf := &bytes.Buffer{}
	runs := []*history.Run{
		{
			ID:         "run-1",
			Operation:  "clear_indices",
			Trigger:    "schedule",
			Status:     history.StatusFailure,
			StartedAt:  time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC),
			DurationMS: 1500,
			Error:      "connection refused, retry later",
			ErrorKind:  "transport",
		},
	}

	if err := NewFormatter(FormatCSV).FormatTo(buf, runs); err != nil {
		t.Fatalf("FormatTo() error = %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	row := records[1]
	if row[0] != "run-1" || row[4] != "2024-01-03T01:00:00Z" || row[5] != "1.5s" {
		t.Errorf("unexpected row: %v", row)
	}
	if row[6] != "transport: connection refused, retry later" {
		t.Errorf("unexpected error column: %q", row[6])
	}
}

func TestCSVFormatter_Unsupported(t *testing.T) {
	err := (&CSVFormatter{}).FormatTo(&bytes.Buffer{}, struct{}{})
	if err == nil {
		t.Error("expected error for unsupported type")
	}
}
