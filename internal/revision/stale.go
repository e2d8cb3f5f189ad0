package revision

import (
	"fmt"

	"github.com/KotaHv/Auto-Bangumi/internal/parser"
)

// Entry is a downloaded torrent reduced to its stale-check identity.
type Entry struct {
	Hash     string
	Name     string
	Key      string
	Revision int
}

// StaleGroup is a set of entries sharing a key. Drop is empty when every
// member is at the maximum revision.
type StaleGroup struct {
	Key  string
	Keep []Entry
	Drop []Entry
}

// StaleKey builds the key for a stored episode: "<title> S<NN>E<EE>".
func StaleKey(title string, season int, episode parser.Episode) string {
	return fmt.Sprintf("%s S%02dE%s", title, season, episode.Pad(2))
}

// ResolveStale returns every group with more than one member, in first-seen
// order.
func ResolveStale(entries []Entry) []StaleGroup {
	order := make([]string, 0, len(entries))
	members := make(map[string][]Entry, len(entries))
	for _, entry := range entries {
		if _, seen := members[entry.Key]; !seen {
			order = append(order, entry.Key)
		}
		members[entry.Key] = append(members[entry.Key], entry)
	}

	var groups []StaleGroup
	for _, key := range order {
		group := members[key]
		if len(group) < 2 {
			continue
		}
		best := 0
		for _, entry := range group {
			best = max(best, entry.Revision)
		}
		resolved := StaleGroup{Key: key}
		for _, entry := range group {
			if entry.Revision == best {
				resolved.Keep = append(resolved.Keep, entry)
			} else {
				resolved.Drop = append(resolved.Drop, entry)
			}
		}
		groups = append(groups, resolved)
	}
	return groups
}
