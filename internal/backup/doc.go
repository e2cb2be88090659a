// Package backup keeps copies of history files before they are rewritten in
// place. Each backup is a JSON entry named by a random UUID and stored in a
// private per-user state directory.
package backup
