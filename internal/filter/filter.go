package filter

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/histshrink/internal/history"
)

// Keep selects which occurrence of a duplicate survives.
type Keep string

const (
	KeepFirst Keep = "first"
	KeepLast  Keep = "last"
)

// Options controls filtering.
type Options struct {
	// NoDedup keeps duplicates.
	NoDedup             bool
	Keep                Keep
	NormalizeWhitespace bool
	// Exclude holds regexes for commands that are not worth keeping.
	Exclude []string
	// CommonExcludes adds the CommonExcludes preset to Exclude.
	CommonExcludes bool
	// MinLength drops commands with fewer characters (0 disables).
	MinLength int
}

// Filter applies dedup and exclusion policy to records.
type Filter struct {
	dedup     bool
	keep      Keep
	normalize bool
	minLength int
	exclude   []*regexp.Regexp
}

// New compiles the exclude patterns.
func New(opts Options) (*Filter, error) {
	keep := opts.Keep
	switch keep {
	case "":
		keep = KeepFirst
	case KeepFirst, KeepLast:
	default:
		return nil, fmt.Errorf("unknown keep policy %q (want first or last)", keep)
	}
	if opts.MinLength < 0 {
		return nil, fmt.Errorf("min length must be >= 0, got %d", opts.MinLength)
	}

	patterns := opts.Exclude
	if opts.CommonExcludes {
		patterns = append(append([]string{}, patterns...), CommonExcludes()...)
	}

	f := &Filter{dedup: !opts.NoDedup, keep: keep, normalize: opts.NormalizeWhitespace, minLength: opts.MinLength}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, re)
	}
	return f, nil
}

// Key returns the dedup key for a command.
func (f *Filter) Key(cmd string) string {
	if !f.normalize {
		return cmd
	}
	lines := strings.Split(cmd, "\n")
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.Join(lines, "\n")
}

// Dedup collapses records with equal keys. The relative order of kept records
// is the input order regardless of the keep policy.
func (f *Filter) Dedup(records []history.Record) (kept, dropped []history.Record) {
	if !f.dedup {
		return records, nil
	}
	seen := make(map[string]struct{}, len(records))
	keep := make([]bool, len(records))

	mark := func(i int) {
		k := f.Key(records[i].Command)
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		keep[i] = true
	}
	if f.keep == KeepLast {
		for i := len(records) - 1; i >= 0; i-- {
			mark(i)
		}
	} else {
		for i := range records {
			mark(i)
		}
	}

	kept = make([]history.Record, 0, len(seen))
	for i, r := range records {
		if keep[i] {
			kept = append(kept, r)
		} else {
			dropped = append(dropped, r)
		}
	}
	return kept, dropped
}

// Excluded returns the first exclude pattern that matches cmd.
func (f *Filter) Excluded(cmd string) (string, bool) {
	for _, re := range f.exclude {
		if re.MatchString(cmd) {
			return re.String(), true
		}
	}
	return "", false
}

// TooShort reports whether cmd is below the minimum length.
func (f *Filter) TooShort(cmd string) bool {
	return f.minLength > 0 && utf8.RuneCountInString(cmd) < f.minLength
}
