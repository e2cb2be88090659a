// Package redact finds likely secrets in shell commands and removes them.
//
// Detection is heuristic. A built-in set of regex [Rule] values covers common
// credential shapes: bearer and basic authorization headers, password and
// token flags, URLs with embedded credentials, provider key prefixes (AWS,
// GitHub, GitLab, Slack, Stripe, OpenAI, Anthropic, Google, npm), JWTs,
// private key headers, and long hex or high-entropy base64 tokens. The
// gitleaks default rule set can be enabled as a second engine.
//
// Extra rules and an allowlist can be loaded from a TOML file with
// [LoadRulesFile]. Matches are replaced with [Placeholder], which no rule
// matches, so redacting already-redacted text is a no-op.
//
// Nothing here guarantees that every secret is found.
package redact
