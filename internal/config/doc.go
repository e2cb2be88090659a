// Package config loads and merges histshrink configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (HISTSHRINK_SECRETS_MODE, HISTSHRINK_LOG_LEVEL, etc.)
//  3. Config file ($XDG_CONFIG_HOME/histshrink/config.yaml)
//  4. Built-in defaults
//
// Keys are dotted section paths such as "filter.min_length". The environment
// name of a key is HISTSHRINK_ followed by the key uppercased, with the first
// dot replaced by an underscore. When history.file is unset everywhere,
// $HISTFILE is used.
package config
