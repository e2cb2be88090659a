// Package shrink runs the history pipeline: secret scrubbing, dedup,
// exclusion and minimum length, in that order. It produces the retained
// records together with a Report describing what was removed and why.
package shrink
