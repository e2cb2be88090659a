package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dshills/histshrink/internal/redact"
	"github.com/dshills/histshrink/internal/shrink"
)

// TextWriter outputs a human-readable text report.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *shrink.Report) error {
	ew := &errWriter{w: w}
	c := report.Counts

	ew.printf("histshrink %s: %s (%s)\n", report.Inputs.Mode, displayPath(report.Inputs.Path), report.Inputs.Format)
	if report.Inputs.Output != "" && report.Inputs.Output != report.Inputs.Path {
		ew.printf("Output: %s\n", report.Inputs.Output)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Records: %d -> %d (%d removed)\n", c.InputRecords, c.OutputRecords, c.Removed())
	ew.printf("Lines:   %d -> %d\n", c.InputLines, c.OutputLines)
	for _, row := range countRows(c) {
		if row.n > 0 {
			ew.printf("  %-18s %d\n", row.label, row.n)
		}
	}
	ew.println(strings.Repeat("─", 60))

	total := len(report.Findings)
	ew.printf("Secrets: %d findings", total)
	if total > 0 {
		ew.printf(" (%d high, %d medium, %d low)",
			report.Summary.Counts.High,
			report.Summary.Counts.Medium,
			report.Summary.Counts.Low,
		)
	}
	ew.println("")

	grouped := groupBySeverity(report.Findings)
	for _, sev := range []redact.Severity{redact.SeverityHigh, redact.SeverityMedium, redact.SeverityLow} {
		findings := grouped[sev]
		if len(findings) == 0 {
			continue
		}
		ew.printf("\n%s %s\n", severityIcon(sev), strings.ToUpper(string(sev)))
		ew.println(strings.Repeat("─", 40))

		sort.SliceStable(findings, func(i, j int) bool {
			return findings[i].Line < findings[j].Line
		})
		for _, f := range findings {
			ew.printf("  line %-6d %-26s %s (%s)\n", f.Line, f.RuleID, f.Description, f.Action)
		}
	}

	if len(report.Flagged) > 0 {
		ew.printf("\nFlagged for review (%d):\n", len(report.Flagged))
		for _, f := range report.Flagged {
			ew.printf("  line %-6d [%s] %s\n", f.Line, f.Keyword, oneLine(f.Command))
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	switch {
	case report.Inputs.DryRun:
		ew.println("Dry run: nothing written.")
	case report.Inputs.BackupID != "":
		ew.printf("Backup: %s\n", report.Inputs.BackupID)
	}
	ew.printf("Completed in %dms\n", report.Timing.TotalMs)

	return ew.err
}

type countRow struct {
	label string
	n     int
}

func countRows(c shrink.Counts) []countRow {
	return []countRow{
		{"duplicates", c.Duplicates},
		{"excluded", c.Excluded},
		{"too short", c.TooShort},
		{"secrets dropped", c.SecretsDropped},
		{"secrets redacted", c.SecretsRedacted},
		{"malformed", c.Malformed},
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

func groupBySeverity(findings []shrink.Finding) map[redact.Severity][]shrink.Finding {
	m := make(map[redact.Severity][]shrink.Finding)
	for _, f := range findings {
		m[f.Severity] = append(m[f.Severity], f)
	}
	return m
}

func severityIcon(s redact.Severity) string {
	switch s {
	case redact.SeverityHigh:
		return "[!!]"
	case redact.SeverityMedium:
		return "[!]"
	case redact.SeverityLow:
		return "[-]"
	default:
		return "[?]"
	}
}

func displayPath(p string) string {
	if p == "" {
		return "<stdin>"
	}
	return p
}

// oneLine renders a multi-line command on a single line.
func oneLine(cmd string) string {
	return strings.ReplaceAll(cmd, "\n", " ⏎ ")
}
