package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KotaHv/Auto-Bangumi/internal/parser"
)

// ReleaseExtractionPrompt asks the model for the structured fields of an
// anime release name.
const ReleaseExtractionPrompt = `You extract structured data from anime torrent release names and answer with a single JSON object.

Fields:
- group: release group, "" when absent
- title_en: English or romanized title, "" when absent
- title_zh: Chinese title, "" when absent
- title_jp: Japanese title, "" when absent
- season: season number, 1 when absent
- episode: episode number; specials may be fractional (48.5)
- resolution, source, sub: "" when absent

Never invent values that are not in the name. Keep every field in the output.

Example:
Input: [ANi] 关于我转生变成史莱姆这档事 第三季 - 48.5 [1080P][Baha][WEB-DL][AAC AVC][CHT][MP4]
Output: {"group":"ANi","title_en":"","title_zh":"关于我转生变成史莱姆这档事","title_jp":"","season":3,"episode":48.5,"resolution":"1080P","source":"Baha","sub":"CHT"}

Example:
Input: [Lilith-Raws] 关于我在无意间被隔壁的天使变成废柴这件事 / Otonari no Tenshi-sama - 09 [Baha][WEB-DL][1080p][AVC AAC][CHT][MP4]
Output: {"group":"Lilith-Raws","title_en":"Otonari no Tenshi-sama","title_zh":"关于我在无意间被隔壁的天使变成废柴这件事","title_jp":"","season":1,"episode":9,"resolution":"1080p","source":"WEB-DL","sub":"CHT"}`

// Extraction is the model's reading of a release name.
type Extraction struct {
	Group      string   `json:"group"`
	TitleEN    string   `json:"title_en"`
	TitleZH    string   `json:"title_zh"`
	TitleJP    string   `json:"title_jp"`
	Season     int      `json:"season"`
	Episode    *float64 `json:"episode"`
	Resolution string   `json:"resolution"`
	Source     string   `json:"source"`
	Sub        string   `json:"sub"`
	Raw        string   `json:"-"`
}

// Title returns the title in the preferred language, falling back through
// zh, en and jp in that order.
func (e Extraction) Title(language string) string {
	byLanguage := map[string]string{"zh": e.TitleZH, "en": e.TitleEN, "jp": e.TitleJP}
	if title := strings.TrimSpace(byLanguage[strings.ToLower(language)]); title != "" {
		return title
	}
	for _, title := range []string{e.TitleZH, e.TitleEN, e.TitleJP} {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}
	return ""
}

// Extract asks the model to read a release name.
func (c *Client) Extract(ctx context.Context, name string) (Extraction, error) {
	var empty Extraction
	name = strings.TrimSpace(name)
	if name == "" {
		return empty, errors.New("llm extract: name required")
	}
	content, err := c.CompleteJSON(ctx, ReleaseExtractionPrompt, name)
	if err != nil {
		return empty, err
	}
	var parsed Extraction
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return empty, fmt.Errorf("llm extract: parse payload: %w", err)
	}
	parsed.Raw = content
	if parsed.Season <= 0 {
		parsed.Season = 1
	}
	return parsed, nil
}

// ExtractRelease reduces a release name to {title, episode, revision}. The
// revision is read from the name itself; models are unreliable at it.
func (c *Client) ExtractRelease(ctx context.Context, name, language string) (parser.Release, error) {
	extraction, err := c.Extract(ctx, name)
	if err != nil {
		return parser.Release{}, err
	}
	title := extraction.Title(language)
	if title == "" || extraction.Episode == nil || *extraction.Episode < 0 {
		return parser.Release{}, fmt.Errorf("llm extract: incomplete result for %q: %w", name, parser.ErrNoMatch)
	}
	return parser.Release{
		Title:    title,
		Episode:  parser.Episode(*extraction.Episode),
		Revision: parser.ScanRevision(parser.Normalize(name)),
	}, nil
}
