// Package store persists tracked series, subscribed feeds and the torrents
// added for them in a SQLite database under paths.data_dir.
//
// The rename pass reads two things from here: which series a torrent hash
// belongs to and that series' episode offset. Feed probes record every torrent
// they hand to the download client so the next probe can skip it.
//
// The schema is migrated forward on open using PRAGMA user_version. A database
// written by a newer build is rejected with ErrSchemaMismatch.
package store
