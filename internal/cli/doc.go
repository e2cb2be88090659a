// Package cli wires together the Cobra command tree for the histshrink binary.
//
// It defines the root command and all subcommands (shrink, scan, config,
// backup, version), binds flags, reads configuration, runs the shrink
// pipeline, and returns deterministic exit codes for scripting.
package cli
