// Package output formats shrink reports for display or machine consumption.
//
// Three formats are supported:
//   - text: human-readable terminal output (default)
//   - json: full structured JSON report
//   - markdown: tables plus a collapsible list of flagged commands
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*shrink.Report]. [WriteReport]
// handles destination selection.
package output
