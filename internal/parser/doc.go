// Package parser derives episode identity from fan-release filenames.
//
// A name is normalized first (brackets folded to ASCII, checksum tags removed),
// then matched against an ordered catalog of extraction rules. The first rule
// that matches yields the prefix holding release group and title, plus the
// episode number. Revision markers ("05v2", "[v2]") are scanned independently
// over the whole normalized name.
//
// Parse returns a full Descriptor for a media or subtitle file inside a
// torrent. ParseRelease is the reduced variant used to key feed items for
// duplicate detection.
package parser
