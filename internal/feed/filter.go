package feed

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/moistari/rls"
)

// Metadata is what rls reads out of a release name beyond the fields the
// episode parser cares about.
type Metadata struct {
	Resolution string
	Source     string
	Codec      string
	Group      string
}

// Describe parses name with rls.
func Describe(name string) Metadata {
	release := rls.ParseString(name)
	return Metadata{
		Resolution: release.Resolution,
		Source:     release.Source,
		Codec:      strings.Join(release.Codec, " "),
		Group:      release.Group,
	}
}

// Filter drops items whose title or resolution matches any pattern.
type Filter struct {
	patterns []*regexp.Regexp
}

// NewFilter compiles the patterns. Blank patterns are ignored.
func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile filter %q: %w", pattern, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Match returns the first pattern that matches the title or the resolution
// rls reads from it.
func (f *Filter) Match(title string) (string, bool) {
	if f == nil || len(f.patterns) == 0 {
		return "", false
	}
	resolution := Describe(title).Resolution
	for _, re := range f.patterns {
		if re.MatchString(title) || (resolution != "" && re.MatchString(resolution)) {
			return re.String(), true
		}
	}
	return "", false
}

// Empty reports whether the filter has no patterns.
func (f *Filter) Empty() bool {
	return f == nil || len(f.patterns) == 0
}
