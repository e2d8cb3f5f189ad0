package language

import "strings"

// Variant identifies the subtitle language bucket a file belongs to.
type Variant int

const (
	// Undefined means no bucket marker was found.
	Undefined Variant = iota
	Traditional
	Simplified
)

type bucket struct {
	variant Variant
	tag     string
	markers []string
}

// buckets is ordered; the first bucket with a matching marker wins.
var buckets = []bucket{
	{Traditional, "zh-tw", []string{"tc", "cht", "繁", "zh-tw"}},
	{Simplified, "zh", []string{"sc", "chs", "简", "zh"}},
}

// Classify returns the first bucket whose marker occurs in the lowercased name.
func Classify(name string) Variant {
	lowered := strings.ToLower(name)
	for _, b := range buckets {
		for _, marker := range b.markers {
			if strings.Contains(lowered, marker) {
				return b.variant
			}
		}
	}
	return Undefined
}

// Defined reports whether the variant names a real bucket.
func (v Variant) Defined() bool {
	return v != Undefined
}

// Tag returns the filename tag used when composing subtitle paths ("zh-tw", "zh").
// Undefined returns an empty string.
func (v Variant) Tag() string {
	for _, b := range buckets {
		if b.variant == v {
			return b.tag
		}
	}
	return ""
}

func (v Variant) String() string {
	switch v {
	case Traditional:
		return "traditional"
	case Simplified:
		return "simplified"
	default:
		return "undefined"
	}
}

// ParseTag maps a filename tag back to its variant. Unknown tags are Undefined.
func ParseTag(tag string) Variant {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, b := range buckets {
		if b.tag == tag {
			return b.variant
		}
	}
	return Undefined
}
