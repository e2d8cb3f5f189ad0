// Package preflight provides readiness checks for the filesystem paths and
// external services Auto-Bangumi depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check.
//   - The CLI "autobangumi preflight" command renders the results as a table.
//
// Each check is gated by its config toggle; disabled features are skipped.
package preflight
