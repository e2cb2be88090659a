package redact

import (
	"fmt"
	"regexp"
)

// Rule defines a secret detection rule.
//
// When Pattern has a capture group, only the first group is treated as the
// secret and the rest of the match is kept as context ("password=[REDACTED]").
type Rule struct {
	ID          string   `toml:"id"`
	Description string   `toml:"description"`
	Pattern     string   `toml:"pattern"`
	Keywords    []string `toml:"keywords"`
	Severity    Severity `toml:"severity"`
	// Entropy is the minimum Shannon entropy of the secret (0 disables the check).
	Entropy float64 `toml:"entropy"`
}

type compiledRule struct {
	Rule
	pattern  *regexp.Regexp
	keywords []*regexp.Regexp
}

func compileRule(r Rule) (*compiledRule, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("%w: id is required", ErrInvalidRule)
	}
	if r.Pattern == "" {
		return nil, fmt.Errorf("%w: rule %s: pattern is required", ErrInvalidRule, r.ID)
	}
	pattern, err := regexp.Compile(r.Pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: rule %s: %v", ErrInvalidRule, r.ID, err)
	}
	if r.Severity == "" {
		r.Severity = SeverityMedium
	}
	if SeverityRank(r.Severity) == 0 {
		return nil, fmt.Errorf("%w: rule %s: unknown severity %q", ErrInvalidRule, r.ID, r.Severity)
	}

	c := &compiledRule{Rule: r, pattern: pattern}
	for _, kw := range r.Keywords {
		c.keywords = append(c.keywords, regexp.MustCompile("(?i)"+regexp.QuoteMeta(kw)))
	}
	return c, nil
}

// applies reports whether the rule's keyword prefilter passes for text.
func (c *compiledRule) applies(text string) bool {
	if len(c.keywords) == 0 {
		return true
	}
	for _, kw := range c.keywords {
		if kw.MatchString(text) {
			return true
		}
	}
	return false
}

// credentialKeys are the assignment and flag names treated as secret-bearing.
const credentialKeys = `password|passwd|secret|token|api[_-]?key|apikey|access[_-]?key|client[_-]?secret|auth[_-]?token`

// DefaultRules returns the built-in detection rules. Value classes exclude
// "$" (an environment variable reference is not a secret) and "[" (the
// placeholder) so redacted output never matches again.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          "authorization-bearer",
			Description: "Bearer token in an Authorization header",
			Pattern:     `(?i)\bbearer\s+([A-Za-z0-9._~+/=-]{8,})`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "authorization-basic",
			Description: "Basic credentials in an Authorization header",
			Pattern:     `(?i)authorization:\s*basic\s+([A-Za-z0-9+/=]{8,})`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "credential-assignment",
			Description: "Credential passed as key=value or --flag=value",
			Pattern:     `(?i)(?:\b|_)(?:` + credentialKeys + `)\s*[=:]\s*['"]?([^\s'"$\[][^\s'"]{2,})`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "credential-flag",
			Description: "Credential passed as a separate flag argument",
			Pattern:     `(?i)--(?:password|passwd|token|secret|api-key|apikey|client-secret|auth-token)\s+['"]?([^\s'"$\[-][^\s'"]*)`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "mysql-inline-password",
			Description: "MySQL client password given with -p",
			Pattern:     `\bmysql(?:dump|admin)?\b.*\s-p([^\s'"$\[][^\s'"]*)`,
			Keywords:    []string{"mysql"},
			Severity:    SeverityHigh,
		},
		{
			ID:          "url-credentials",
			Description: "URL with embedded user:password",
			Pattern:     `\b[a-zA-Z][a-zA-Z0-9+.-]*://[^\s:@/]+:([^\s@/$\[][^\s@/]*)@`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "aws-access-key-id",
			Description: "AWS Access Key ID",
			Pattern:     `\b(?:A3T[A-Z0-9]|AKIA|AGPA|AIDA|AROA|AIPA|ANPA|ANVA|ASIA)[A-Z0-9]{16}\b`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "aws-secret-access-key",
			Description: "AWS Secret Access Key",
			Pattern:     `(?i)aws_?secret_?access_?key\s*[=:]\s*['"]?([A-Za-z0-9/+=]{40})`,
			Keywords:    []string{"aws"},
			Severity:    SeverityHigh,
		},
		{
			ID:          "github-token",
			Description: "GitHub token",
			Pattern:     `\b(?:gh[pousr]_[A-Za-z0-9]{36,}|github_pat_[A-Za-z0-9_]{22,})`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "gitlab-token",
			Description: "GitLab Personal Access Token",
			Pattern:     `\bglpat-[A-Za-z0-9_-]{20,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "slack-token",
			Description: "Slack token",
			Pattern:     `\bxox[baprs]-[A-Za-z0-9-]{10,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "stripe-key",
			Description: "Stripe API key",
			Pattern:     `\b(?:sk|rk|pk)_(?:live|test)_[A-Za-z0-9]{24,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "anthropic-api-key",
			Description: "Anthropic API key",
			Pattern:     `\bsk-ant-[A-Za-z0-9_-]{20,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "openai-api-key",
			Description: "OpenAI API key",
			Pattern:     `\bsk-(?:proj-)?[A-Za-z0-9]{20,}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "google-api-key",
			Description: "Google API key",
			Pattern:     `\bAIza[A-Za-z0-9_-]{35}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "npm-token",
			Description: "npm access token",
			Pattern:     `\bnpm_[A-Za-z0-9]{36}`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "jwt",
			Description: "JSON Web Token",
			Pattern:     `\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`,
			Severity:    SeverityMedium,
		},
		{
			ID:          "private-key",
			Description: "Private key block",
			Pattern:     `-----BEGIN (?:RSA |DSA |EC |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY(?: BLOCK)?-----`,
			Severity:    SeverityHigh,
		},
		{
			ID:          "hex-token",
			Description: "Long hexadecimal token",
			Pattern:     `\b[0-9a-fA-F]{32,}\b`,
			Severity:    SeverityLow,
		},
		{
			ID:          "base64-token",
			Description: "Long high-entropy base64 token",
			Pattern:     `[A-Za-z0-9+/_-]{40,}={0,2}`,
			Severity:    SeverityLow,
			Entropy:     4.5,
		},
	}
}

// DefaultFlagPatterns are keywords that mark a retained command for manual review.
func DefaultFlagPatterns() []string {
	return []string{"password", "ssh", "secret", "base64", "jasypt"}
}
