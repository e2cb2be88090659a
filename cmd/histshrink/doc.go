// Histshrink is a CLI for shrinking shell history files.
//
// It removes duplicate, excluded and too-short commands and drops or
// redacts commands that look like they contain secrets. The file is
// rewritten atomically and the original is kept as a backup.
//
// Usage:
//
//	histshrink shrink                       # shrink $HISTFILE in place
//	histshrink shrink --dry-run ~/.zsh_history
//	histshrink shrink --secrets redact -o out.txt
//	histshrink scan --fail-on high          # report secrets, change nothing
//	histshrink backup list                  # list saved originals
//	histshrink backup restore <id>
package main
