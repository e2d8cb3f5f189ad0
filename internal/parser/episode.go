package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Episode is an episode number. Specials may be half-numbered (12.5).
type Episode float64

// ParseEpisode converts captured episode text to a number. Leading zeros are
// accepted; empty or malformed text is an error.
func ParseEpisode(text string) (Episode, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("episode: empty value")
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("episode: invalid value %q", text)
	}
	return Episode(value), nil
}

// Whole reports whether the episode has no fractional part.
func (e Episode) Whole() bool {
	return float64(e) == math.Trunc(float64(e))
}

// Add shifts the episode by a per-series offset.
func (e Episode) Add(offset int) Episode {
	return e + Episode(offset)
}

// String renders whole episodes without a decimal point ("9") and specials
// with their fraction ("12.5").
func (e Episode) String() string {
	if e.Whole() {
		return strconv.FormatInt(int64(e), 10)
	}
	return strconv.FormatFloat(float64(e), 'f', -1, 64)
}

// Pad zero-fills the rendered episode to width, keeping a leading sign.
func (e Episode) Pad(width int) string {
	return zeroFill(e.String(), width)
}

func zeroFill(value string, width int) string {
	if len(value) >= width {
		return value
	}
	sign := ""
	if strings.HasPrefix(value, "-") || strings.HasPrefix(value, "+") {
		sign, value = value[:1], value[1:]
	}
	return sign + strings.Repeat("0", width-len(sign)-len(value)) + value
}
