package output

import (
	"github.com/dshills/histshrink/internal/history"
	"github.com/dshills/histshrink/internal/redact"
	"github.com/dshills/histshrink/internal/shrink"
)

func sampleReport() *shrink.Report {
	findings := []shrink.Finding{
		{
			Line:   12,
			Action: shrink.ActionDropped,
			Finding: redact.Finding{
				RuleID:      "authorization-bearer",
				Description: "Bearer token in an Authorization header",
				Severity:    redact.SeverityHigh,
				Source:      "regex",
			},
		},
		{
			Line:   3,
			Action: shrink.ActionDropped,
			Finding: redact.Finding{
				RuleID:      "hex-token",
				Description: "Long hexadecimal token",
				Severity:    redact.SeverityLow,
				Source:      "regex",
			},
		},
	}
	return &shrink.Report{
		Tool:    "histshrink",
		Version: "1.0",
		RunID:   "test-run",
		Inputs: shrink.InputInfo{
			Mode:        "shrink",
			Path:        "/home/u/.bash_history",
			Format:      history.FormatBash,
			SecretsMode: shrink.SecretsDrop,
			BackupID:    "8f1c2b7e-0000-4000-8000-000000000000",
		},
		Counts: shrink.Counts{
			InputLines:     40,
			OutputLines:    22,
			InputRecords:   20,
			OutputRecords:  11,
			Duplicates:     7,
			SecretsDropped: 2,
		},
		Summary:  shrink.ComputeSummary(findings),
		Findings: findings,
		Flagged: []shrink.Flagged{
			{Line: 15, Keyword: "ssh", Command: "ssh deploy@prod"},
			{Line: 18, Keyword: "password", Command: "echo `pass show db` | psql --password\n  -h db"},
		},
		Timing: shrink.Timing{TotalMs: 4},
	}
}

func emptyReport() *shrink.Report {
	return &shrink.Report{
		Tool:   "histshrink",
		Inputs: shrink.InputInfo{Mode: "scan", Format: history.FormatPlain},
		Counts: shrink.Counts{InputLines: 2, OutputLines: 2, InputRecords: 2, OutputRecords: 2},
	}
}
