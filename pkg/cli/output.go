package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/retainer/pkg/history"
	"mercator-hq/retainer/pkg/lifecycle"
	"mercator-hq/retainer/pkg/schedule"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is human-readable output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output with a header row.
	FormatCSV OutputFormat = "csv"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", NewUsageError("unknown output format %q (want text, json or csv)", s)
	}
}

// Formatter writes command results.
type Formatter interface {
	FormatTo(w io.Writer, data any) error
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// table is the tabular form shared by the text and CSV formatters.
type table struct {
	header []string
	rows   [][]string
}

// toTable converts the result types of retainer commands. ok is false for
// any other type.
func toTable(data any) (t table, ok bool) {
	switch v := data.(type) {
	case []string:
		t.header = []string{"INDEX"}
		for _, name := range v {
			t.rows = append(t.rows, []string{name})
		}
	case map[string]lifecycle.IndexSettings:
		t.header = []string{"INDEX", "SHARDS", "REPLICAS"}
		for _, name := range slices.Sorted(maps.Keys(v)) {
			s := v[name]
			t.rows = append(t.rows, []string{name, strconv.Itoa(s.Shards), strconv.Itoa(s.Replicas)})
		}
	case lifecycle.AliasState:
		t.header = []string{"ALIAS", "INDICES"}
		for _, alias := range slices.Sorted(maps.Keys(v)) {
			t.rows = append(t.rows, []string{alias, strings.Join(v[alias], ",")})
		}
	case []lifecycle.AliasAction:
		t.header = []string{"ACTION", "INDEX", "ALIAS"}
		for _, action := range v {
			switch {
			case action.Remove != nil:
				t.rows = append(t.rows, []string{"remove", action.Remove.Index, action.Remove.Alias})
			case action.Add != nil:
				t.rows = append(t.rows, []string{"add", action.Add.Index, action.Add.Alias})
			}
		}
	case []*history.Run:
		t.header = []string{"RUN ID", "OPERATION", "TRIGGER", "STATUS", "STARTED", "DURATION", "ERROR"}
		for _, run := range v {
			t.rows = append(t.rows, runRow(run))
		}
	case *history.Run:
		return toTable([]*history.Run{v})
	case []schedule.JobInfo:
		t.header = []string{"JOB", "SCHEDULE", "NEXT"}
		for _, job := range v {
			next := "-"
			if !job.Next.IsZero() {
				next = job.Next.Format(time.RFC3339)
			}
			t.rows = append(t.rows, []string{job.Name, job.Spec, next})
		}
	default:
		return table{}, false
	}
	return t, true
}

func runRow(run *history.Run) []string {
	errMsg := run.Error
	if run.ErrorKind != "" {
		errMsg = run.ErrorKind + ": " + errMsg
	}
	return []string{
		run.ID,
		run.Operation,
		run.Trigger,
		string(run.Status),
		run.StartedAt.Format(time.RFC3339),
		(time.Duration(run.DurationMS) * time.Millisecond).String(),
		errMsg,
	}
}

// TextFormatter writes aligned columns for known result types and falls
// back to %v for anything else.
type TextFormatter struct{}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data any) error {
	t, ok := toTable(data)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.header, "\t"))
	for _, row := range t.rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// CSVFormatter formats known result types as CSV.
type CSVFormatter struct{}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data any) error {
	t, ok := toTable(data)
	if !ok {
		return fmt.Errorf("CSV output is not supported for %T", data)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write(t.header); err != nil {
		return err
	}
	if err := csvWriter.WriteAll(t.rows); err != nil {
		return err
	}
	return csvWriter.Error()
}
