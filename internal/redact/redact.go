package redact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Placeholder replaces every detected secret.
const Placeholder = "[REDACTED]"

// Finding describes a detected secret. It never carries the secret itself.
type Finding struct {
	RuleID      string   `json:"ruleId"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Source      string   `json:"source"`
	Start       int      `json:"start"`
	End         int      `json:"end"`
}

// Options configures a Detector.
type Options struct {
	// Rules are appended to DefaultRules.
	Rules []Rule
	// Allowlist holds regexes; a secret matching any of them is ignored.
	Allowlist []string
	// FlagPatterns overrides DefaultFlagPatterns when non-nil.
	FlagPatterns []string
	// Gitleaks enables the gitleaks default rule set as a second engine.
	Gitleaks bool
}

// Detector finds and redacts secrets in single commands.
type Detector struct {
	rules    []*compiledRule
	allow    []*regexp.Regexp
	flags    []*regexp.Regexp
	gitleaks *gitleaksScanner
}

// New compiles the default rules plus any configured extras.
func New(opts Options) (*Detector, error) {
	d := &Detector{}

	for _, r := range append(DefaultRules(), opts.Rules...) {
		c, err := compileRule(r)
		if err != nil {
			return nil, err
		}
		d.rules = append(d.rules, c)
	}

	for i, p := range opts.Allowlist {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: allowlist %d: %v", ErrInvalidRule, i, err)
		}
		d.allow = append(d.allow, re)
	}

	flags := opts.FlagPatterns
	if flags == nil {
		flags = DefaultFlagPatterns()
	}
	for _, p := range flags {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid flag pattern %q: %w", p, err)
		}
		d.flags = append(d.flags, re)
	}

	if opts.Gitleaks {
		g, err := newGitleaksScanner(opts.Allowlist)
		if err != nil {
			return nil, fmt.Errorf("creating gitleaks detector: %w", err)
		}
		d.gitleaks = g
	}

	return d, nil
}

// MustNew is New that panics on error. Intended for tests and package-level defaults.
func MustNew(opts Options) *Detector {
	d, err := New(opts)
	if err != nil {
		panic(err)
	}
	return d
}

// Detect returns the secrets found in text, ordered by position.
func (d *Detector) Detect(text string) []Finding {
	var findings []Finding
	for _, rule := range d.rules {
		if !rule.applies(text) {
			continue
		}
		for _, m := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			if start == end {
				continue
			}
			secret := text[start:end]
			if rule.Entropy > 0 && shannonEntropy(secret) < rule.Entropy {
				continue
			}
			if d.allowed(secret) {
				continue
			}
			findings = append(findings, Finding{
				RuleID:      rule.ID,
				Description: rule.Description,
				Severity:    rule.Severity,
				Source:      "regex",
				Start:       start,
				End:         end,
			})
		}
	}
	if d.gitleaks != nil {
		findings = append(findings, d.gitleaks.detect(text)...)
	}
	findings = trimContinuations(text, findings)

	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Start < findings[j].Start
	})
	return findings
}

// Contains reports whether text holds at least one likely secret.
func (d *Detector) Contains(text string) bool {
	return len(d.Detect(text)) > 0
}

// Redact replaces every detected secret in text with Placeholder.
func (d *Detector) Redact(text string) (string, []Finding) {
	findings := d.Detect(text)
	if len(findings) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, s := range mergeSpans(findings) {
		b.WriteString(text[last:s.start])
		b.WriteString(Placeholder)
		last = s.end
	}
	b.WriteString(text[last:])
	return b.String(), findings
}

// Flag returns the first review keyword found in text.
func (d *Detector) Flag(text string) (string, bool) {
	for _, re := range d.flags {
		if re.MatchString(text) {
			return re.String(), true
		}
	}
	return "", false
}

func (d *Detector) allowed(secret string) bool {
	if strings.Contains(secret, Placeholder) {
		return true
	}
	for _, re := range d.allow {
		if re.MatchString(secret) {
			return true
		}
	}
	return false
}

// trimContinuations keeps a line-continuation backslash out of each finding
// so that redaction does not join the next line onto the command.
func trimContinuations(text string, findings []Finding) []Finding {
	kept := findings[:0]
	for _, f := range findings {
		if f.End > f.Start && text[f.End-1] == '\\' &&
			(f.End == len(text) || text[f.End] == '\n' || text[f.End] == '\r') {
			f.End--
		}
		if f.End > f.Start {
			kept = append(kept, f)
		}
	}
	return kept
}

type span struct{ start, end int }

// mergeSpans collapses overlapping or adjacent findings into sorted spans.
func mergeSpans(findings []Finding) []span {
	spans := make([]span, 0, len(findings))
	for _, f := range findings {
		spans = append(spans, span{f.Start, f.End})
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	merged := []span{spans[0]}
	for _, s := range spans[1:] {
		cur := &merged[len(merged)-1]
		if s.start <= cur.end {
			if s.end > cur.end {
				cur.end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

var defaultDetector = MustNew(Options{})

// Secrets replaces detected secrets in text with [REDACTED] using the default rules.
func Secrets(text string) string {
	out, _ := defaultDetector.Redact(text)
	return out
}
