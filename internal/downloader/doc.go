// Package downloader talks to the download client that holds fetched
// torrents.
//
// Client is the full surface the rest of the system consumes: listing
// torrents and their files, renaming a file inside a torrent, deleting,
// categorizing, tagging and adding torrents. QBittorrent implements it over
// the qBittorrent WebAPI. Guard wraps a client session so that only one
// rename pass holds it at a time, across goroutines and across processes.
package downloader
