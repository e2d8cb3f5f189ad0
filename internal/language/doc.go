// Package language classifies subtitle files into Chinese script buckets.
//
// Fan-release subtitles are tagged with free-form markers ("CHT", "简", "zh-tw"),
// so classification is a substring test against an ordered list of buckets.
// Traditional markers are tested before simplified ones; a file carrying both
// is traditional.
package language
