package redact

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

// RulesFile is a user rules pack loaded from secrets.rules_file.
//
//	[[rules]]
//	id = "internal-token"
//	pattern = 'itk_[a-z0-9]{32}'
//	severity = "high"
//
//	[allowlist]
//	regexes = ['^example-']
type RulesFile struct {
	Rules     []Rule `toml:"rules"`
	Allowlist struct {
		Regexes []string `toml:"regexes"`
	} `toml:"allowlist"`
}

// LoadRulesFile loads a rules file from disk. Returns nil and nil error if path is empty.
func LoadRulesFile(path string) (*RulesFile, error) {
	if path == "" {
		return nil, nil
	}
	var rf RulesFile
	if _, err := toml.DecodeFile(path, &rf); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTOML, path, err)
	}
	for _, r := range rf.Rules {
		if _, err := compileRule(r); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, p := range rf.Allowlist.Regexes {
		if _, err := regexp.Compile(p); err != nil {
			return nil, fmt.Errorf("%w: %s: allowlist pattern %q: %v", ErrInvalidRule, path, p, err)
		}
	}
	return &rf, nil
}

// Apply merges the rules file into opts.
func (rf *RulesFile) Apply(opts *Options) {
	if rf == nil {
		return
	}
	opts.Rules = append(opts.Rules, rf.Rules...)
	opts.Allowlist = append(opts.Allowlist, rf.Allowlist.Regexes...)
}
