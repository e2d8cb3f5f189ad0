package naming

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/KotaHv/Auto-Bangumi/internal/textutil"
)

// Series is the identity recovered from a save directory.
type Series struct {
	Title  string
	Season int
}

var (
	seriesDirPattern = regexp.MustCompile(`^(.*\S) S(\d{2,})$`)
	legacyDirPattern = regexp.MustCompile(`(?i)^Season (\d+)$`)
)

// SavePath returns the directory new downloads of a series are saved under:
// "<root>/<title> S<NN>". The title is sanitized for filesystem use.
func SavePath(root, title string, season int) string {
	dir := fmt.Sprintf("%s S%02d", textutil.SanitizeFileName(title), season)
	return path.Join(strings.ReplaceAll(root, `\`, "/"), dir)
}

// RecoverSeries reads the series title and season back out of a save path.
// Both "<title> S<NN>" and the older "<title>/Season <N>" layouts are
// recognized; either slash style is accepted.
func RecoverSeries(savePath string) (Series, bool) {
	segments := splitSegments(savePath)
	if len(segments) == 0 {
		return Series{}, false
	}
	last := segments[len(segments)-1]
	if groups := seriesDirPattern.FindStringSubmatch(last); groups != nil {
		return series(groups[1], groups[2])
	}
	if groups := legacyDirPattern.FindStringSubmatch(last); groups != nil && len(segments) >= 2 {
		return series(segments[len(segments)-2], groups[1])
	}
	return Series{}, false
}

func series(title, season string) (Series, bool) {
	title = strings.TrimSpace(title)
	value, err := strconv.Atoi(season)
	if err != nil || value < 1 || title == "" {
		return Series{}, false
	}
	return Series{Title: title, Season: value}, true
}

func splitSegments(savePath string) []string {
	fields := strings.FieldsFunc(savePath, func(r rune) bool { return r == '/' || r == '\\' })
	segments := fields[:0]
	for _, field := range fields {
		if strings.TrimSpace(field) != "" {
			segments = append(segments, field)
		}
	}
	return segments
}
