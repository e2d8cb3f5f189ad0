package revision_test

import (
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/revision"
)

func TestStaleKey(t *testing.T) {
	if got := revision.StaleKey("Foo", 1, 5); got != "Foo S01E05" {
		t.Fatalf("StaleKey = %q", got)
	}
	if got := revision.StaleKey("Foo", 2, 12.5); got != "Foo S02E12.5" {
		t.Fatalf("StaleKey = %q", got)
	}
}

func TestResolveStale(t *testing.T) {
	entries := []revision.Entry{
		{Hash: "a", Key: "Foo S01E05", Revision: 1},
		{Hash: "b", Key: "Foo S01E06", Revision: 1},
		{Hash: "c", Key: "Foo S01E05", Revision: 2},
		{Hash: "d", Key: "Bar S01E01", Revision: 2},
		{Hash: "e", Key: "Bar S01E01", Revision: 2},
	}
	groups := revision.ResolveStale(entries)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	foo := groups[0]
	if foo.Key != "Foo S01E05" || len(foo.Keep) != 1 || foo.Keep[0].Hash != "c" || len(foo.Drop) != 1 || foo.Drop[0].Hash != "a" {
		t.Fatalf("foo group = %+v", foo)
	}
	bar := groups[1]
	if len(bar.Keep) != 2 || len(bar.Drop) != 0 {
		t.Fatalf("tied group = %+v, want both kept", bar)
	}
}
