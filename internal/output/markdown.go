package output

import (
	"io"
	"strings"

	"github.com/dshills/histshrink/internal/redact"
	"github.com/dshills/histshrink/internal/shrink"
)

// MarkdownWriter outputs a markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *shrink.Report) error {
	ew := &errWriter{w: w}
	c := report.Counts

	ew.printf("## histshrink %s\n\n", report.Inputs.Mode)
	ew.printf("`%s` (%s)\n\n", displayPath(report.Inputs.Path), report.Inputs.Format)

	ew.printf("| | Input | Output |\n")
	ew.printf("|---|---|---|\n")
	ew.printf("| Records | %d | %d |\n", c.InputRecords, c.OutputRecords)
	ew.printf("| Lines | %d | %d |\n\n", c.InputLines, c.OutputLines)

	ew.printf("| Removed | Count |\n")
	ew.printf("|---------|-------|\n")
	for _, row := range countRows(c) {
		ew.printf("| %s | %d |\n", row.label, row.n)
	}
	ew.printf("| **Total** | **%d** |\n\n", c.Removed())

	total := len(report.Findings)
	if total == 0 {
		ew.println("No secrets found. :white_check_mark:")
	} else {
		ew.printf("### Secrets (%d)\n\n", total)
		ew.printf("| | Line | Rule | Description | Action |\n")
		ew.printf("|---|---|---|---|---|\n")
		for _, f := range report.Findings {
			ew.printf("| %s | %d | `%s` | %s | %s |\n",
				mdSeverityIcon(f.Severity), f.Line, f.RuleID, mdEscape(f.Description), f.Action)
		}
	}

	if len(report.Flagged) > 0 {
		ew.printf("\n<details>\n<summary>Flagged for review (%d)</summary>\n\n", len(report.Flagged))
		for _, f := range report.Flagged {
			ew.printf("- line %d, `%s`: %s\n", f.Line, f.Keyword, mdCode(oneLine(f.Command)))
		}
		ew.printf("\n</details>\n")
	}

	ew.printf("\n*Processed in %dms*\n", report.Timing.TotalMs)
	return ew.err
}

func mdSeverityIcon(s redact.Severity) string {
	switch s {
	case redact.SeverityHigh:
		return ":red_circle:"
	case redact.SeverityMedium:
		return ":orange_circle:"
	case redact.SeverityLow:
		return ":yellow_circle:"
	default:
		return ":white_circle:"
	}
}

func mdEscape(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// mdCode wraps s in a code span, lengthening the fence when s contains backticks.
func mdCode(s string) string {
	fence := "`"
	for strings.Contains(s, fence) {
		fence += "`"
	}
	if strings.HasPrefix(s, "`") || strings.HasSuffix(s, "`") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}
