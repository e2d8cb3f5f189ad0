package parser

import (
	"errors"
	"path"
	"strings"

	"github.com/KotaHv/Auto-Bangumi/internal/language"
)

// ErrNoMatch is returned when no catalog rule matches any candidate string.
var ErrNoMatch = errors.New("no extraction rule matched")

// Kind selects how a file is parsed.
type Kind int

const (
	KindMedia Kind = iota
	KindSubtitle
)

func (k Kind) String() string {
	if k == KindSubtitle {
		return "subtitle"
	}
	return "media"
}

// Descriptor is the structured identity derived from one file.
type Descriptor struct {
	Path     string
	Group    string
	Title    string
	Season   int
	Episode  Episode
	Revision int
	Suffix   string
	Kind     Kind
	// Language is only classified for subtitle files.
	Language language.Variant
	// Rule names the catalog rule that produced the match.
	Rule string
}

// Release is the reduced identity used to key feed items.
type Release struct {
	Title    string
	Episode  Episode
	Revision int
}

// Key groups releases of the same episode: title + "+" + episode.
func (r Release) Key() string {
	return r.Title + "+" + r.Episode.String()
}

// Options tune a single Parse call.
type Options struct {
	// Name is the release name tried before the file's base name.
	Name string
	// SeasonHint overrides any parsed season when positive. Season markers
	// are still stripped from the title.
	SeasonHint int
	Kind       Kind
}

// Parser applies a rule catalog to candidate names.
type Parser struct {
	catalog Catalog
}

// New returns a parser over the given catalog, or the default catalog when
// none is supplied.
func New(catalog Catalog) *Parser {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	return &Parser{catalog: catalog}
}

var defaultParser = New(nil)

// Parse parses a file path with the default catalog.
func Parse(filePath string, opts Options) (Descriptor, error) {
	return defaultParser.Parse(filePath, opts)
}

// ParseRelease parses a release name with the default catalog.
func ParseRelease(name string) (Release, error) {
	return defaultParser.ParseRelease(name)
}

// Parse tries the release name (when given) and then the path's base name.
// For each candidate every rule is tried in order; the first success stops
// the search. A match whose prefix leaves no title (bare "S01E05.mkv") is
// kept as a fallback with the cleaned candidate as its title, and is only
// returned when no later candidate yields a real title. The suffix always
// comes from the path.
func (p *Parser) Parse(filePath string, opts Options) (Descriptor, error) {
	base := baseName(filePath)
	candidates := make([]string, 0, 2)
	if strings.TrimSpace(opts.Name) != "" {
		candidates = append(candidates, opts.Name)
	}
	candidates = append(candidates, base)

	var fallback *Descriptor
	for _, candidate := range candidates {
		normalized := Normalize(candidate)
		extracted, ok := p.extract(normalized)
		if !ok {
			continue
		}
		group, region := splitGroup(extracted.match.Prefix)
		title, season := extractSeason(region)
		if opts.SeasonHint > 0 {
			season = opts.SeasonHint
		}
		descriptor := Descriptor{
			Path:     filePath,
			Group:    group,
			Title:    title,
			Season:   season,
			Episode:  extracted.episode,
			Revision: ScanRevision(normalized),
			Suffix:   path.Ext(base),
			Kind:     opts.Kind,
			Rule:     extracted.rule,
		}
		if opts.Kind == KindSubtitle {
			descriptor.Language = language.Classify(base)
		}
		if title == "" {
			if fallback == nil {
				descriptor.Title = candidateTitle(normalized)
				fallback = &descriptor
			}
			continue
		}
		return descriptor, nil
	}
	if fallback != nil {
		return *fallback, nil
	}
	return Descriptor{}, ErrNoMatch
}

// ParseRelease derives {title, episode, revision} from a release name alone.
func (p *Parser) ParseRelease(name string) (Release, error) {
	normalized := Normalize(name)
	extracted, ok := p.extract(normalized)
	if !ok {
		return Release{}, ErrNoMatch
	}
	_, region := splitGroup(extracted.match.Prefix)
	title, _ := extractSeason(region)
	if title == "" {
		title = candidateTitle(normalized)
	}
	return Release{
		Title:    title,
		Episode:  extracted.episode,
		Revision: ScanRevision(normalized),
	}, nil
}

type extraction struct {
	rule    string
	match   Match
	episode Episode
}

func (p *Parser) extract(normalized string) (extraction, bool) {
	for _, rule := range p.catalog {
		match, ok := rule.Match(normalized)
		if !ok {
			continue
		}
		episode, err := ParseEpisode(match.Episode)
		if err != nil {
			continue
		}
		return extraction{rule: rule.Name(), match: match, episode: episode}, true
	}
	return extraction{}, false
}

var knownSuffixes = []string{".mp4", ".mkv", ".ass", ".srt"}

// candidateTitle is the title used when the matched prefix is empty or only a
// season marker: the normalized candidate without its file extension.
func candidateTitle(normalized string) string {
	ext := path.Ext(normalized)
	for _, suffix := range knownSuffixes {
		if strings.EqualFold(ext, suffix) {
			normalized = strings.TrimSuffix(normalized, ext)
			break
		}
	}
	return strings.TrimSpace(normalized)
}

// baseName handles both slash styles since torrent file lists may come from
// Windows clients.
func baseName(filePath string) string {
	if idx := strings.LastIndexAny(filePath, `/\`); idx >= 0 {
		return filePath[idx+1:]
	}
	return filePath
}
