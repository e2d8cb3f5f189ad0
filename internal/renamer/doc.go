// Package renamer runs rename passes over completed torrents in the download
// client.
//
// A pass first deletes superseded revisions of already-downloaded episodes,
// then renames each remaining torrent's media and subtitle files according to
// the configured naming policy. Series identity comes from the torrent's save
// directory ("<title> S<NN>"); the per-series episode offset comes from the
// store. A single media file fails soft, a collection stops at its first
// failed rename.
package renamer
