// Package logging builds the zap logger used across histshrink.
//
// Logs go to stderr so stdout stays free for reports. A custom TraceLevel
// sits below Debug for per-command detail such as very long commands.
package logging
