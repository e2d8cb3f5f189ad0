// Package feed probes RSS subscriptions and hands new episodes of tracked
// series to the download client.
//
// A probe fetches every enabled feed, drops items matching the global
// rss_parser.filter patterns, matches the rest to a series by its raw title,
// applies the series' own filters, keeps only the highest revision of each
// episode, skips urls already downloaded, and adds what remains under the
// series save path. Added torrents are recorded with their info hash so the
// renamer can find the series offset later.
package feed
