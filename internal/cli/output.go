// Package cli renders dashboard data for terminal consumption: tables for
// humans, JSON and YAML for scripts.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"fluorite-flake/internal/doctor"
	"fluorite-flake/internal/orchestrator"
	"fluorite-flake/internal/services"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatTable, FormatJSON, FormatYAML:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (table, json, yaml)", s)
	}
}

// PrintStructured renders v as JSON or YAML. Table rendering is per-type;
// callers fall back to this for the machine formats.
func PrintStructured(w io.Writer, format OutputFormat, v interface{}) error {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		fmt.Fprint(w, string(data))
		return nil
	default:
		return fmt.Errorf("no structured rendering for format %q", format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

func colorHealth(state services.HealthState) string {
	switch state {
	case services.HealthHealthy:
		return text.FgGreen.Sprint(state)
	case services.HealthDegraded:
		return text.FgYellow.Sprint(state)
	default:
		return text.FgRed.Sprint(state)
	}
}

func yesNo(b bool) string {
	if b {
		return text.FgGreen.Sprint("yes")
	}
	return text.FgRed.Sprint("no")
}

// RenderServices prints one row per registered service with status and the
// last health snapshot.
func RenderServices(w io.Writer, statuses map[string]services.Status, health map[string]services.HealthStatus) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No services registered"))
		return
	}

	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	t := newTable(w)
	t.AppendHeader(table.Row{"SERVICE", "CONNECTED", "AUTHENTICATED", "HEALTH", "ERROR"})
	for _, name := range names {
		status := statuses[name]
		healthCell := text.FgYellow.Sprint("unknown")
		if hs, ok := health[name]; ok {
			healthCell = colorHealth(hs.Status)
		}
		t.AppendRow(table.Row{name, yesNo(status.Connected), yesNo(status.Authenticated), healthCell, status.Error})
	}
	t.Render()
}

// RenderOverview prints the aggregated dashboard snapshot.
func RenderOverview(w io.Writer, data *orchestrator.MultiServiceDashboardData) {
	agg := data.Aggregated
	t := newTable(w)
	t.AppendHeader(table.Row{"METRIC", "VALUE"})
	t.AppendRow(table.Row{"services", len(data.Services)})
	t.AppendRow(table.Row{"overall health", colorHealth(agg.OverallHealth)})
	t.AppendRow(table.Row{"total resources", agg.TotalResources})
	t.AppendRow(table.Row{"total errors", agg.TotalErrors})
	t.AppendRow(table.Row{"avg response time", fmt.Sprintf("%.0fms", agg.Performance.AvgResponseTime)})
	t.AppendRow(table.Row{"total throughput", fmt.Sprintf("%.0f req/min", agg.Performance.TotalThroughput)})
	t.AppendRow(table.Row{"combined error rate", fmt.Sprintf("%.2f%%", agg.Performance.CombinedErrorRate)})
	if agg.TotalCost != nil {
		t.AppendRow(table.Row{"total cost", fmt.Sprintf("$%.2f", *agg.TotalCost)})
	}
	t.Render()

	if len(data.Errors) > 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("Skipped services:"))
		names := make([]string, 0, len(data.Errors))
		for name := range data.Errors {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %s: %s\n", name, data.Errors[name])
		}
	}

	RenderInsights(w, data.Insights)
}

// RenderInsights prints the rule-generated observations.
func RenderInsights(w io.Writer, insights []orchestrator.Insight) {
	if len(insights) == 0 {
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"PRIORITY", "TYPE", "INSIGHT"})
	for _, insight := range insights {
		t.AppendRow(table.Row{string(insight.Priority), string(insight.Type), insight.Title + ": " + insight.Message})
	}
	t.Render()
}

// RenderResources prints one row per resource.
func RenderResources(w io.Writer, resources []services.Resource) {
	if len(resources) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint("No resources"))
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"TYPE", "NAME", "STATUS", "ID"})
	for _, r := range resources {
		t.AppendRow(table.Row{r.Type, r.Name, r.Status, r.ID})
	}
	t.Render()
}

// RenderDoctorReport prints the environment check results.
func RenderDoctorReport(w io.Writer, report doctor.Report) {
	t := newTable(w)
	t.AppendHeader(table.Row{"TOOL", "STATE", "DETAILS", "SUGGESTION"})
	for _, r := range report.Results {
		state := string(r.State)
		switch r.State {
		case doctor.StatePass:
			state = text.FgGreen.Sprint(state)
		case doctor.StateWarn:
			state = text.FgYellow.Sprint(state)
		case doctor.StateFail:
			state = text.FgRed.Sprint(state)
		}
		t.AppendRow(table.Row{r.Tool, state, r.Message, r.Suggestion})
	}
	t.Render()
	fmt.Fprintln(w, report.Summary())
}

// WithSpinner runs fn behind a progress spinner. quiet skips the spinner
// for scripted use.
func WithSpinner(message string, quiet bool, fn func() error) error {
	if quiet {
		return fn()
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Start()
	defer s.Stop()

	if err := fn(); err != nil {
		s.FinalMSG = text.FgRed.Sprint("✗ "+message) + "\n"
		return err
	}
	s.FinalMSG = text.FgGreen.Sprint("✓ "+message) + "\n"
	return nil
}
