// Package logs reads the daemon log file for the CLI.
//
// It returns the last N lines with bounded memory, follows appended lines
// until the caller's context ends, and can keep only JSON records from one
// component or event type.
package logs
