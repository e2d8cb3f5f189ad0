package naming

import (
	"errors"
	"fmt"
	"strings"
)

// Policy selects how a file name is composed.
type Policy string

const (
	PolicyNone              Policy = "none"
	PolicyPlainName         Policy = "pn"
	PolicyAdvance           Policy = "advance"
	PolicySubtitleNone      Policy = "subtitle_none"
	PolicySubtitlePlainName Policy = "subtitle_pn"
	PolicySubtitleAdvance   Policy = "subtitle_advance"
	// PolicyNormal is deprecated and behaves like PolicyNone.
	PolicyNormal Policy = "normal"
)

var (
	// ErrUnknownPolicy marks a rename method outside the known set.
	ErrUnknownPolicy = errors.New("unknown naming policy")
	// ErrUndefinedLanguage is returned when a subtitle name needs a language
	// tag but none was classified.
	ErrUndefinedLanguage = errors.New("subtitle language undefined")
)

var knownPolicies = map[Policy]struct{}{
	PolicyNone:              {},
	PolicyPlainName:         {},
	PolicyAdvance:           {},
	PolicySubtitleNone:      {},
	PolicySubtitlePlainName: {},
	PolicySubtitleAdvance:   {},
	PolicyNormal:            {},
}

// ParsePolicy maps a configured rename method to a Policy.
func ParsePolicy(value string) (Policy, error) {
	policy := Policy(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := knownPolicies[policy]; !ok {
		return policy, fmt.Errorf("%w: %q", ErrUnknownPolicy, value)
	}
	return policy, nil
}

// Subtitle returns the subtitle variant of a media policy. Subtitle policies
// map to themselves; the deprecated normal policy maps to subtitle_none.
func (p Policy) Subtitle() Policy {
	switch p {
	case PolicyNone, PolicyNormal:
		return PolicySubtitleNone
	case PolicyPlainName:
		return PolicySubtitlePlainName
	case PolicyAdvance:
		return PolicySubtitleAdvance
	default:
		if p.IsSubtitle() {
			return p
		}
		return Policy("subtitle_" + string(p))
	}
}

// IsSubtitle reports whether the policy composes subtitle names.
func (p Policy) IsSubtitle() bool {
	return strings.HasPrefix(string(p), "subtitle_")
}

func (p Policy) String() string {
	return string(p)
}
