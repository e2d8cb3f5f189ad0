// Package logging assembles structured slog loggers and formatting helpers used
// across Auto-Bangumi.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so rename passes and feed probes
// tag their lines with a correlation id and torrent hash. A no-op logger is
// provided for tests and for wiring code that cannot fail.
package logging
