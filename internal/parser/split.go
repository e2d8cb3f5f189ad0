package parser

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	groupDelimiters = regexp.MustCompile(`[\[\]()【】（）]`)
	seasonPattern   = regexp.MustCompile(`(?i)(S|Season )(\d{1,3})`)
)

// splitGroup separates the release group from the title region of a matched
// prefix. With two or more bracket-delimited tokens the first is the group and
// the second the title, unless the second starts with a digit; then the whole
// prefix is the title and there is no group.
func splitGroup(prefix string) (group, title string) {
	tokens := make([]string, 0, 4)
	for _, token := range groupDelimiters.Split(prefix, -1) {
		if strings.TrimSpace(token) == "" {
			continue
		}
		tokens = append(tokens, token)
	}
	switch {
	case len(tokens) == 0:
		return "", prefix
	case len(tokens) == 1:
		return "", tokens[0]
	case isDigit(tokens[1][0]):
		return "", prefix
	default:
		return strings.TrimSpace(tokens[0]), tokens[1]
	}
}

// extractSeason strips every season marker from the title region and returns
// the number from the first one. Without a marker the season is 1.
func extractSeason(region string) (title string, season int) {
	season = 1
	if groups := seasonPattern.FindStringSubmatch(region); groups != nil {
		if value, err := strconv.Atoi(groups[2]); err == nil && value > 0 {
			season = value
		}
	}
	title = strings.TrimSpace(seasonPattern.ReplaceAllString(region, ""))
	return title, season
}
