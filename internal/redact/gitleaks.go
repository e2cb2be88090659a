package redact

import (
	"regexp"
	"strings"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// gitleaksScanner runs the gitleaks default rule set over single commands.
// Building the detector compiles several hundred rules, so it is done once per Detector.
type gitleaksScanner struct {
	detector *detect.Detector
}

func newGitleaksScanner(allowlist []string) (*gitleaksScanner, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	if len(allowlist) > 0 {
		al := &gitleaksConfig.Allowlist{Description: "histshrink allowlist"}
		for _, p := range allowlist {
			// Patterns were compiled by New before this point.
			re := regexp.MustCompile(p)
			al.Regexes = append(al.Regexes, (*gitleaksRegexp.Regexp)(re))
		}
		detector.Config.Allowlists = append(detector.Config.Allowlists, al)
	}
	return &gitleaksScanner{detector: detector}, nil
}

func (g *gitleaksScanner) detect(text string) []Finding {
	var findings []Finding
	for _, f := range g.detector.DetectString(text) {
		secret := f.Secret
		if secret == "" {
			secret = f.Match
		}
		if secret == "" || strings.Contains(secret, Placeholder) {
			continue
		}
		// Columns reported by gitleaks are line-relative; locate by value instead.
		for off := 0; ; {
			i := strings.Index(text[off:], secret)
			if i < 0 {
				break
			}
			start := off + i
			findings = append(findings, Finding{
				RuleID:      f.RuleID,
				Description: f.Description,
				Severity:    SeverityHigh,
				Source:      "gitleaks",
				Start:       start,
				End:         start + len(secret),
			})
			off = start + len(secret)
		}
	}
	return findings
}
