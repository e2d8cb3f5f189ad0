// Package services defines shared utilities consumed by the rename pass, the
// feed probe, and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers and torrent hashes
//     for logging.
//   - Structured error markers plus the Wrap helper, so callers can tell
//     configuration problems from failures worth retrying.
package services
