package filter

// CommonExcludes returns patterns for everyday commands that rarely need to
// be recalled from history, plus clipboard and base64 pipelines that tend to
// carry secrets.
func CommonExcludes() []string {
	return []string{
		`^(cd|ls|l|la|ll|lt)( |$)`,
		`^(echo|en|vi|md|rd|mv|rm|cp|type|s|ij|rr|fexpr|sk8s) `,
		`^history`,
		`^(pwd|clear|exit)$`,
		`^git (add|pull|status|checkout|mv|rm|diff)`,
		`^(gpull|gst)`,
		// sk8s shortcuts (8l, 8h, 8logs)
		`^8`,
		`help`,
		`(echo|en) .*\| *(pbcopy|clip\.exe|base64)`,
	}
}
