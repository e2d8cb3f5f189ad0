package revision

import (
	"log/slog"
	"strconv"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
)

// Candidate is one item from a feed probe.
type Candidate struct {
	Name string
	URL  string
	Hash string
	// Release is set by FilterLatest when the name parses.
	Release *parser.Release
}

// Extractor derives the reduced release identity from a name.
type Extractor func(name string) (parser.Release, error)

// FilterLatest groups candidates by release key and drops members whose
// revision is below their group's maximum. The input slice is not modified;
// survivors are returned in input order with Release populated.
//
// A candidate whose name cannot be parsed forms its own group and is always
// kept: without a key there is nothing to compare it against.
func FilterLatest(candidates []Candidate, extract Extractor, logger *slog.Logger) []Candidate {
	if extract == nil {
		extract = parser.ParseRelease
	}
	logger = logging.NewComponentLogger(logger, "revision")

	resolved := make([]Candidate, len(candidates))
	keys := make([]string, len(candidates))
	groups := make(map[string][]int, len(candidates))
	for i, candidate := range candidates {
		release, err := extract(candidate.Name)
		if err != nil {
			logger.Debug("release name not parsed; kept without deduplication",
				logging.String("name", candidate.Name),
				logging.Error(err),
			)
			keys[i] = unparsedKey(i)
		} else {
			candidate.Release = &release
			keys[i] = release.Key()
		}
		resolved[i] = candidate
		groups[keys[i]] = append(groups[keys[i]], i)
	}

	drop := make([]bool, len(candidates))
	for key, members := range groups {
		if len(members) < 2 {
			continue
		}
		best := 0
		for _, idx := range members {
			best = max(best, resolved[idx].Release.Revision)
		}
		for _, idx := range members {
			if resolved[idx].Release.Revision == best {
				continue
			}
			drop[idx] = true
			logger.Info("superseded release dropped",
				logging.String("name", resolved[idx].Name),
				logging.String("release_key", key),
				logging.Int("revision", resolved[idx].Release.Revision),
				logging.Int("latest_revision", best),
				logging.String(logging.FieldEventType, "release_superseded"),
			)
		}
	}

	retained := make([]Candidate, 0, len(resolved))
	for i, candidate := range resolved {
		if !drop[i] {
			retained = append(retained, candidate)
		}
	}
	return retained
}

// unparsedKey cannot collide with a release key, which always contains "+".
func unparsedKey(index int) string {
	return "unparsed#" + strconv.Itoa(index)
}
