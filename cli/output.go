package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/compozy/autotune/engine/autotune"
)

// Output format constants
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)

var (
	validStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

type reportSet struct {
	Valid   bool               `json:"valid"   yaml:"valid"`
	Total   int                `json:"total"   yaml:"total"`
	Invalid int                `json:"invalid" yaml:"invalid"`
	Reports []*autotune.Report `json:"reports" yaml:"reports"`
}

func newReportSet(reports []*autotune.Report) reportSet {
	set := reportSet{Valid: true, Total: len(reports), Reports: reports}
	for _, report := range reports {
		if !report.Valid {
			set.Valid = false
			set.Invalid++
		}
	}
	return set
}

func writeReports(w io.Writer, format string, reports []*autotune.Report) error {
	set := newReportSet(reports)
	switch format {
	case OutputFormatJSON:
		return writeJSON(w, set)
	case OutputFormatYAML:
		return writeYAML(w, set)
	case OutputFormatText, "":
		for _, report := range reports {
			writeTextReport(w, report)
		}
		summary := fmt.Sprintf("%d document(s) checked, %d invalid", set.Total, set.Invalid)
		if set.Valid {
			fmt.Fprintln(w, dimStyle.Render(summary))
		} else {
			fmt.Fprintln(w, invalidStyle.Render(summary))
		}
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeTextReport(w io.Writer, report *autotune.Report) {
	if report.Valid {
		fmt.Fprintf(w, "%s %s\n", validStyle.Render("ok"), report.Source)
	} else {
		fmt.Fprintf(w, "%s %s\n", invalidStyle.Render("FAIL"), report.Source)
	}
	for _, v := range report.Violations {
		location := v.Location
		if location == "" {
			location = "/"
		}
		fmt.Fprintf(w, "    %s %s %s\n", location, dimStyle.Render("["+string(v.Kind)+"]"), v.Message)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "    %s %s: %s\n", warnStyle.Render("warning"), warning.Instance, warning.Message)
	}
}
