package history

import (
	"fmt"
	"regexp"
	"strings"
)

// Format identifies a history file layout.
type Format string

const (
	FormatPlain Format = "plain"
	FormatBash  Format = "bash"
	FormatZsh   Format = "zsh"
)

// ParseFormat converts a config string to a Format. "auto" and "" return ok=false
// so the caller can fall back to Detect.
func ParseFormat(s string) (Format, bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", false, nil
	case "plain":
		return FormatPlain, true, nil
	case "bash":
		return FormatBash, true, nil
	case "zsh":
		return FormatZsh, true, nil
	default:
		return "", false, fmt.Errorf("unknown history format: %q", s)
	}
}

var (
	bashTimestampRe = regexp.MustCompile(`^#([0-9]{8}[0-9]*)$`)
	zshLineRe       = regexp.MustCompile(`^: ([0-9]{8}[0-9]*):([0-9]*);(.*)$`)
)

// Record is a single history entry.
type Record struct {
	// Raw is the entry exactly as it appeared, physical lines joined by "\n".
	Raw string `json:"-"`
	// Timestamp is the epoch seconds from the bash marker or zsh header.
	Timestamp int64 `json:"timestamp,omitempty"`
	// HasTimestamp distinguishes an absent timestamp from epoch 0.
	HasTimestamp bool `json:"-"`
	// Elapsed is the zsh duration field.
	Elapsed int64 `json:"elapsed,omitempty"`
	// Command is the command text. Multi-line commands keep their embedded newlines.
	Command string `json:"command"`
	// Line is the 1-based line number where the entry starts.
	Line int `json:"line"`
}

// LineCount returns how many physical lines the record occupies when encoded in f.
func (r Record) LineCount(f Format) int {
	n := strings.Count(r.Command, "\n") + 1
	if f == FormatBash && r.HasTimestamp {
		n++
	}
	return n
}
