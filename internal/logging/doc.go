// Package logging provides opt-in file-based logging with rotation for rlm.
// When the --debug flag is set, or output is --format json, logs are written
// to ~/.rlm/logs/ (and to stderr) for debugging and troubleshooting.
//
// Otherwise logging is minimal and goes to stderr only,
// preserving the "It Just Works" philosophy.
package logging
