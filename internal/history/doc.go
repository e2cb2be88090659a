// Package history parses and encodes shell history files.
//
// Three on-disk layouts are understood:
//   - plain: one command per line
//   - bash: HISTTIMEFORMAT style, each command preceded by a "#<epoch>" marker line;
//     every line up to the next marker belongs to the same command
//   - zsh: EXTENDED_HISTORY, ": <epoch>:<elapsed>;<command>", with a trailing
//     backslash continuing the command onto the next physical line
//
// Use [Detect] to guess the layout, [Parse] to turn lines into [Record] values,
// and [Encode] to write records back in the same layout.
package history
