package parser

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

var checksumPattern = regexp.MustCompile(`\s*\[[0-9A-Fa-f]{8}\](\.[0-9A-Za-z]+)$`)

var (
	cjkBrackets = strings.NewReplacer("【", "[", "】", "]")
	lineBreaks  = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")
)

// Normalize prepares a raw name for rule matching. It trims whitespace and
// turns each line break (CRLF or a lone CR or LF) into one space. CJK and
// full-width brackets fold to ASCII, full-width digits are narrowed, and an
// 8-hex-digit checksum tag right before the file extension is removed.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = lineBreaks.Replace(s)
	s = cjkBrackets.Replace(s)
	s = foldFullWidth(s)
	return checksumPattern.ReplaceAllString(s, "$1")
}

// foldFullWidth narrows full-width brackets and digits so ASCII-only patterns
// see them. Other full-width text is left untouched.
func foldFullWidth(s string) string {
	return strings.Map(func(r rune) rune {
		props := width.LookupRune(r)
		if props.Kind() != width.EastAsianFullwidth {
			return r
		}
		narrow := props.Narrow()
		if narrow == 0 {
			return r
		}
		if unicode.IsDigit(narrow) || unicode.In(narrow, unicode.Ps, unicode.Pe) {
			return narrow
		}
		return r
	}, s)
}
