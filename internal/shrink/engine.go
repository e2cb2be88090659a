package shrink

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/histshrink/internal/filter"
	"github.com/dshills/histshrink/internal/history"
	"github.com/dshills/histshrink/internal/logging"
	"github.com/dshills/histshrink/internal/redact"
)

// BigCommandLength is the size at which a command is logged at trace level.
const BigCommandLength = 200

// MalformedWarnDivisor sets the warning threshold for malformed entries: one
// in this many input lines.
const MalformedWarnDivisor = 10

// Options configures an Engine.
type Options struct {
	Filter      filter.Options
	SecretsMode SecretsMode
	// Detector defaults to a detector built from redact.Options{}.
	Detector *redact.Detector
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Engine runs the pipeline over parsed records.
type Engine struct {
	filter   *filter.Filter
	detector *redact.Detector
	mode     SecretsMode
	log      *zap.Logger
}

// Result holds the retained records and the report describing the run.
type Result struct {
	Records []history.Record
	Format  history.Format
	Report  *Report
}

// Encode renders the retained records in the detected format.
func (r *Result) Encode() string {
	return history.EncodeString(r.Records, r.Format)
}

// New validates options and builds an Engine.
func New(opts Options) (*Engine, error) {
	mode := opts.SecretsMode
	switch mode {
	case "":
		mode = SecretsDrop
	case SecretsDrop, SecretsRedact, SecretsReport:
	default:
		return nil, fmt.Errorf("unknown secrets mode %q (want drop, redact or report)", mode)
	}

	f, err := filter.New(opts.Filter)
	if err != nil {
		return nil, err
	}

	det := opts.Detector
	if det == nil {
		if det, err = redact.New(redact.Options{}); err != nil {
			return nil, err
		}
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Engine{filter: f, detector: det, mode: mode, log: log}, nil
}

// Process parses data, runs the pipeline and fills in line counts. A zero
// format is detected from content.
func (e *Engine) Process(data string, format history.Format) *Result {
	start := time.Now()

	lines := history.SplitLines(data)
	if format == "" {
		format = history.Detect(lines)
	}
	records, malformed := history.Parse(lines, format)
	e.log.Debug("parsed history",
		zap.String("format", string(format)),
		zap.Int("lines", len(lines)),
		zap.Int("records", len(records)),
		zap.Int("malformed", malformed),
	)
	if format != history.FormatPlain && malformed > 0 && malformed*MalformedWarnDivisor >= len(lines) {
		e.log.Warn("many lines do not fit the detected history format; they will be dropped",
			zap.String("format", string(format)),
			zap.Int("malformed", malformed),
			zap.Int("lines", len(lines)),
		)
	}

	res := e.Run(records)
	res.Format = format
	res.Report.Inputs.Format = format
	res.Report.Counts.Malformed = malformed
	res.Report.Counts.InputLines = len(lines)
	for _, r := range res.Records {
		res.Report.Counts.OutputLines += r.LineCount(format)
	}
	res.Report.Timing.TotalMs = time.Since(start).Milliseconds()
	return res
}

// Run scrubs secrets, removes duplicates, then drops excluded and short
// commands. Retained records keep their input order.
func (e *Engine) Run(records []history.Record) *Result {
	start := time.Now()
	report := &Report{
		Tool:   "histshrink",
		RunID:  uuid.New().String(),
		Inputs: InputInfo{SecretsMode: e.mode},
		Counts: Counts{InputRecords: len(records)},
	}

	scrubbed := make([]history.Record, 0, len(records))
	for _, rec := range records {
		if n := utf8.RuneCountInString(rec.Command); n >= BigCommandLength {
			logging.Trace(e.log, "big command", zap.Int("line", rec.Line), zap.Int("length", n))
		}
		kept, ok := e.scrub(rec, report)
		if ok {
			scrubbed = append(scrubbed, kept)
		}
	}

	unique, dups := e.filter.Dedup(scrubbed)
	report.Counts.Duplicates = len(dups)
	for _, d := range dups {
		logging.Trace(e.log, "dropped duplicate", zap.Int("line", d.Line))
	}

	retained := make([]history.Record, 0, len(unique))
	for _, rec := range unique {
		if pattern, ok := e.filter.Excluded(rec.Command); ok {
			report.Counts.Excluded++
			e.log.Debug("dropped excluded command",
				zap.Int("line", rec.Line), zap.String("pattern", pattern), zap.String("command", rec.Command))
			continue
		}
		if e.filter.TooShort(rec.Command) {
			report.Counts.TooShort++
			e.log.Debug("dropped short command", zap.Int("line", rec.Line), zap.String("command", rec.Command))
			continue
		}
		if kw, ok := e.detector.Flag(rec.Command); ok {
			display, _ := e.detector.Redact(rec.Command)
			report.Flagged = append(report.Flagged, Flagged{Line: rec.Line, Keyword: kw, Command: display})
		}
		retained = append(retained, rec)
	}

	report.Counts.OutputRecords = len(retained)
	report.Summary = ComputeSummary(report.Findings)
	report.Timing.TotalMs = time.Since(start).Milliseconds()

	e.log.Info("shrink complete",
		zap.Int("input", report.Counts.InputRecords),
		zap.Int("output", report.Counts.OutputRecords),
		zap.Int("duplicates", report.Counts.Duplicates),
		zap.Int("secrets", len(report.Findings)),
	)

	return &Result{Records: retained, Report: report}
}

// scrub applies the secrets mode to rec. It returns false when the record is dropped.
func (e *Engine) scrub(rec history.Record, report *Report) (history.Record, bool) {
	if e.mode == SecretsRedact {
		out, findings := e.detector.Redact(rec.Command)
		if len(findings) == 0 {
			return rec, true
		}
		report.Counts.SecretsRedacted++
		e.addFindings(report, rec.Line, ActionRedacted, findings)
		e.log.Debug("redacted secret", zap.Int("line", rec.Line), zap.Int("findings", len(findings)))
		rec.Command = out
		rec.Raw = ""
		return rec, true
	}

	findings := e.detector.Detect(rec.Command)
	if len(findings) == 0 {
		return rec, true
	}
	if e.mode == SecretsReport {
		e.addFindings(report, rec.Line, ActionReported, findings)
		return rec, true
	}
	report.Counts.SecretsDropped++
	e.addFindings(report, rec.Line, ActionDropped, findings)
	e.log.Debug("dropped secret",
		zap.Int("line", rec.Line),
		zap.String("rule", findings[0].RuleID),
		logging.RedactedString("command", rec.Command),
	)
	return rec, false
}

func (e *Engine) addFindings(report *Report, line int, action Action, findings []redact.Finding) {
	for _, f := range findings {
		report.Findings = append(report.Findings, Finding{Line: line, Action: action, Finding: f})
	}
}
