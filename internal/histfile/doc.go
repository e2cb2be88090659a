// Package histfile locates, reads and atomically rewrites history files.
package histfile
