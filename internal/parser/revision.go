package parser

import (
	"regexp"
	"strconv"
)

var revisionPattern = regexp.MustCompile(`(?i)\d+v(\d+)|\[v(\d+)\]`)

// ScanRevision returns the first revision marker found anywhere in the
// normalized name ("05v2" or "[v2]"). Names without a marker are revision 1.
func ScanRevision(normalized string) int {
	for _, groups := range revisionPattern.FindAllStringSubmatch(normalized, -1) {
		for _, captured := range groups[1:] {
			if captured == "" {
				continue
			}
			value, err := strconv.Atoi(captured)
			if err != nil || value < 1 {
				continue
			}
			return value
		}
	}
	return 1
}
