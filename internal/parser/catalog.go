package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Match is the raw outcome of one extraction rule: everything before the
// episode marker, the episode text, and the discarded remainder.
type Match struct {
	Prefix  string
	Episode string
	Rest    string
}

// Rule attempts an extraction anchored at the start of the string.
type Rule interface {
	Name() string
	Match(s string) (Match, bool)
}

// Catalog is an ordered rule list. Earlier rules take priority.
type Catalog []Rule

// DefaultCatalog returns the standard rule order:
//  1. dash-separated bare episode ("Title - 05")
//  2. bracket or space delimited episode ("[05]", " 05 ", "E05 ")
//  3. bracketed CJK marker ("[第05话]")
//  4. unbracketed CJK marker ("第05话")
//  5. "S01E05" / "EP05" fallback
func DefaultCatalog() Catalog {
	return Catalog{
		dashRule{},
		newRegexRule("delimited", `(?i)^(.*)[\[ E](\d{1,4}\.\d{1,2}|\d{1,4})(?:v\d{1,2})?(?: )?(?:END)?[\] ](.*)`),
		newRegexRule("cjk-bracketed", `(?i)^(.*)\[(?:第)?(\d*\.*\d*)[话集話](?:END)?\](.*)`),
		cjkMarkerRule{},
		newRegexRule("season-episode", `(?i)^(.*)(?:S\d{2})?EP?(\d+)(.*)`),
	}
}

type regexRule struct {
	name    string
	pattern *regexp.Regexp
}

func newRegexRule(name, expr string) regexRule {
	return regexRule{name: name, pattern: regexp.MustCompile(expr)}
}

func (r regexRule) Name() string { return r.name }

func (r regexRule) Match(s string) (Match, bool) {
	groups := r.pattern.FindStringSubmatch(s)
	if groups == nil {
		return Match{}, false
	}
	return Match{Prefix: groups[1], Episode: groups[2], Rest: groups[3]}, true
}

// dashRule matches "<prefix> - <episode>". The episode is 1-4 digits with an
// optional 1-2 digit fraction and must not run into another digit or a "p"
// (so "- 1080p" is a resolution, not an episode). The rightmost qualifying
// separator wins, mirroring a greedy prefix.
type dashRule struct{}

const dashSeparator = " - "

func (dashRule) Name() string { return "dash" }

func (dashRule) Match(s string) (Match, bool) {
	for i := len(s) - len(dashSeparator); i >= 0; i-- {
		if !strings.HasPrefix(s[i:], dashSeparator) {
			continue
		}
		start := i + len(dashSeparator)
		episode, ok := dashEpisodeAt(s, start)
		if !ok {
			continue
		}
		return Match{
			Prefix:  s[:i],
			Episode: episode,
			Rest:    skipEpisodeTrailer(s[start+len(episode):]),
		}, true
	}
	return Match{}, false
}

func dashEpisodeAt(s string, start int) (string, bool) {
	whole := digitRun(s, start)
	if whole == 0 || whole > 4 {
		return "", false
	}
	end := start + whole
	if end < len(s) && s[end] == '.' {
		fraction := digitRun(s, end+1)
		for n := min(fraction, 2); n >= 1; n-- {
			if episodeBoundary(s, end+1+n) {
				return s[start : end+1+n], true
			}
		}
	}
	if episodeBoundary(s, end) {
		return s[start:end], true
	}
	return "", false
}

func episodeBoundary(s string, pos int) bool {
	if pos >= len(s) {
		return true
	}
	c := s[pos]
	return !isDigit(c) && c != 'p' && c != 'P'
}

var trailerPattern = regexp.MustCompile(`(?i)^(?:v\d{1,2})?(?: )?(?:END)?`)

func skipEpisodeTrailer(rest string) string {
	return rest[len(trailerPattern.FindString(rest)):]
}

// cjkMarkerRule matches an unbracketed "第05话" / "05集" marker. The number
// must sit directly before the marker character; an optional leading 第 is
// consumed and does not become part of the title.
type cjkMarkerRule struct{}

const cjkOrdinal = "第"

func (cjkMarkerRule) Name() string { return "cjk-marker" }

func (cjkMarkerRule) Match(s string) (Match, bool) {
	for end := len(s); end > 0; {
		r, size := utf8.DecodeLastRuneInString(s[:end])
		markerAt := end - size
		end = markerAt
		if r != '话' && r != '話' && r != '集' {
			continue
		}
		numberStart := markerAt
		for numberStart > 0 && (isDigit(s[numberStart-1]) || s[numberStart-1] == '.') {
			numberStart--
		}
		number := s[numberStart:markerAt]
		if _, err := ParseEpisode(number); err != nil {
			continue
		}
		prefix := strings.TrimSuffix(s[:numberStart], cjkOrdinal)
		rest := s[markerAt+size:]
		if len(rest) >= 3 && strings.EqualFold(rest[:3], "END") {
			rest = rest[3:]
		}
		return Match{Prefix: prefix, Episode: number, Rest: rest}, true
	}
	return Match{}, false
}

func digitRun(s string, start int) int {
	n := 0
	for start+n < len(s) && isDigit(s[start+n]) {
		n++
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
