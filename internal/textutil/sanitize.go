package textutil

import "strings"

// pathReplacer maps characters qBittorrent or the host filesystem reject in a
// save-path segment. Separators become dashes so "Fate/Zero" stays readable.
var pathReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName turns a series title into a single path segment. Runs of
// whitespace collapse and trailing dots are dropped, since SMB shares refuse
// directory names ending in a dot.
func SanitizeFileName(name string) string {
	name = strings.Join(strings.Fields(pathReplacer.Replace(name)), " ")
	return strings.TrimRight(name, ". ")
}

// SanitizeTag makes a value usable as a single download client tag. Commas
// separate tags on the wire, so they become spaces and runs of space collapse.
func SanitizeTag(value string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(value, ",", " ")), " ")
}
