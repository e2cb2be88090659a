package shrink

import (
	"github.com/dshills/histshrink/internal/history"
	"github.com/dshills/histshrink/internal/redact"
)

// SecretsMode controls what happens to a command containing a likely secret.
type SecretsMode string

const (
	SecretsDrop   SecretsMode = "drop"
	SecretsRedact SecretsMode = "redact"
	// SecretsReport keeps the command unchanged and only records the finding.
	SecretsReport SecretsMode = "report"
)

// Action is what the pipeline did with a finding's command.
type Action string

const (
	ActionDropped  Action = "dropped"
	ActionRedacted Action = "redacted"
	ActionReported Action = "reported"
)

// Finding is a detected secret located by history line. It never carries the secret.
type Finding struct {
	Line   int    `json:"line"`
	Action Action `json:"action"`
	redact.Finding
}

// Flagged is a retained command worth reviewing by hand.
type Flagged struct {
	Line    int    `json:"line"`
	Keyword string `json:"keyword"`
	Command string `json:"command"`
}

// Counts tallies the pipeline's decisions.
type Counts struct {
	InputLines      int `json:"inputLines"`
	OutputLines     int `json:"outputLines"`
	InputRecords    int `json:"inputRecords"`
	OutputRecords   int `json:"outputRecords"`
	Malformed       int `json:"malformed"`
	Duplicates      int `json:"duplicates"`
	Excluded        int `json:"excluded"`
	TooShort        int `json:"tooShort"`
	SecretsDropped  int `json:"secretsDropped"`
	SecretsRedacted int `json:"secretsRedacted"`
}

// Removed returns the number of records the pipeline dropped.
func (c Counts) Removed() int {
	return c.InputRecords - c.OutputRecords
}

// SeverityCounts holds finding counts by severity level.
type SeverityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Summary provides an overview of findings.
type Summary struct {
	Counts          SeverityCounts  `json:"counts"`
	HighestSeverity redact.Severity `json:"highestSeverity"`
}

// InputInfo describes what was processed.
type InputInfo struct {
	Mode        string         `json:"mode"`
	Path        string         `json:"path,omitempty"`
	Output      string         `json:"output,omitempty"`
	Format      history.Format `json:"format"`
	SecretsMode SecretsMode    `json:"secretsMode"`
	DryRun      bool           `json:"dryRun,omitempty"`
	BackupID    string         `json:"backupId,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	RunID    string    `json:"runId"`
	Inputs   InputInfo `json:"inputs"`
	Counts   Counts    `json:"counts"`
	Summary  Summary   `json:"summary"`
	Findings []Finding `json:"findings"`
	Flagged  []Flagged `json:"flagged"`
	Timing   Timing    `json:"timing"`
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case redact.SeverityLow:
			s.Counts.Low++
		case redact.SeverityMedium:
			s.Counts.Medium++
		case redact.SeverityHigh:
			s.Counts.High++
		}
		if redact.SeverityRank(f.Severity) > redact.SeverityRank(s.HighestSeverity) {
			s.HighestSeverity = f.Severity
		}
	}
	return s
}

// HasFindingsAtOrAbove reports whether any finding meets the threshold.
func (r *Report) HasFindingsAtOrAbove(threshold string) bool {
	for _, f := range r.Findings {
		if redact.MeetsThreshold(f.Severity, threshold) {
			return true
		}
	}
	return false
}
