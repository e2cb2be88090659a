package history

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SplitLines splits file content into physical lines. A trailing newline does
// not produce an empty final line and CRLF endings are tolerated.
func SplitLines(data string) []string {
	if data == "" {
		return nil
	}
	data = strings.TrimSuffix(data, "\n")
	lines := strings.Split(data, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Detect guesses the layout of a history file. Any zsh extended header makes
// the file zsh; any bash timestamp marker makes it bash; anything else is plain.
func Detect(lines []string) Format {
	bash := false
	for _, line := range lines {
		if zshLineRe.MatchString(line) {
			return FormatZsh
		}
		if !bash && bashTimestampRe.MatchString(line) {
			bash = true
		}
	}
	if bash {
		return FormatBash
	}
	return FormatPlain
}

// ParseLine interprets a single plain history line. It returns false for
// blank lines.
func ParseLine(line string) (Record, bool) {
	cmd := strings.TrimSpace(line)
	if cmd == "" {
		return Record{}, false
	}
	return Record{Raw: line, Command: cmd}, true
}

// Parse converts lines into records using the given layout. The second return
// value is the number of lines or entries that were skipped as malformed or empty.
func Parse(lines []string, f Format) ([]Record, int) {
	switch f {
	case FormatZsh:
		return parseZsh(lines)
	case FormatBash:
		return parseBash(lines)
	default:
		return parsePlain(lines)
	}
}

func parsePlain(lines []string) ([]Record, int) {
	records := make([]Record, 0, len(lines))
	skipped := 0
	for i, line := range lines {
		rec, ok := ParseLine(line)
		if !ok {
			skipped++
			continue
		}
		rec.Line = i + 1
		records = append(records, rec)
	}
	return records, skipped
}

func parseBash(lines []string) ([]Record, int) {
	var (
		records []Record
		skipped int
		cur     *Record
		body    []string
	)

	flush := func() {
		if cur == nil {
			return
		}
		cmd := strings.TrimSpace(strings.Join(body, "\n"))
		if cmd == "" {
			skipped++
		} else {
			cur.Command = cmd
			cur.Raw = strings.Join(append([]string{cur.Raw}, body...), "\n")
			records = append(records, *cur)
		}
		cur = nil
		body = body[:0]
	}

	for i, line := range lines {
		if m := bashTimestampRe.FindStringSubmatch(line); m != nil {
			flush()
			ts, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				skipped++
				continue
			}
			cur = &Record{Raw: line, Timestamp: ts, HasTimestamp: true, Line: i + 1}
			continue
		}
		if cur == nil {
			// Entries written before HISTTIMEFORMAT was set carry no marker.
			rec, ok := ParseLine(line)
			if !ok {
				skipped++
				continue
			}
			rec.Line = i + 1
			records = append(records, rec)
			continue
		}
		body = append(body, line)
	}
	flush()

	return records, skipped
}

func parseZsh(lines []string) ([]Record, int) {
	var records []Record
	skipped := 0

	for i := 0; i < len(lines); i++ {
		m := zshLineRe.FindStringSubmatch(lines[i])
		if m == nil {
			skipped++
			continue
		}
		start := i
		ts, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			skipped++
			continue
		}
		var elapsed int64
		if m[2] != "" {
			elapsed, _ = strconv.ParseInt(m[2], 10, 64)
		}

		cmd := strings.TrimSpace(m[3])
		raw := []string{lines[i]}
		for strings.HasSuffix(cmd, "\\") && i+1 < len(lines) {
			i++
			cmd += "\n" + lines[i]
			raw = append(raw, lines[i])
		}
		cmd = strings.TrimRight(cmd, " \t")
		if cmd == "" {
			skipped++
			continue
		}

		records = append(records, Record{
			Raw:          strings.Join(raw, "\n"),
			Timestamp:    ts,
			HasTimestamp: true,
			Elapsed:      elapsed,
			Command:      cmd,
			Line:         start + 1,
		})
	}

	return records, skipped
}

// Encode writes records in the given layout. Every record ends with a newline.
func Encode(w io.Writer, records []Record, f Format) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		var err error
		switch f {
		case FormatZsh:
			_, err = fmt.Fprintf(bw, ": %d:%d;%s\n", r.Timestamp, r.Elapsed, r.Command)
		case FormatBash:
			if r.HasTimestamp {
				if _, err = fmt.Fprintf(bw, "#%d\n", r.Timestamp); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(bw, "%s\n", r.Command)
		default:
			_, err = fmt.Fprintf(bw, "%s\n", r.Command)
		}
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeString is Encode into a string.
func EncodeString(records []Record, f Format) string {
	var b strings.Builder
	_ = Encode(&b, records, f)
	return b.String()
}
