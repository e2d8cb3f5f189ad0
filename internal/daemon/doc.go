// Package daemon coordinates the long-running Auto-Bangumi process.
//
// It holds a flock-based lock to prevent multiple instances, ensures the
// collection category exists on the download client, and runs feed probes
// and rename passes on their configured intervals. Both kinds of work run on
// one goroutine, so they never overlap. Results are turned into
// notifications: renamed episodes, added torrents and failures.
//
// Keep orchestration logic here: the probe and the rename pass themselves
// live in internal/feed and internal/renamer.
package daemon
