package naming_test

import (
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/naming"
)

func TestSavePath(t *testing.T) {
	got := naming.SavePath("/downloads/Bangumi", "Re:Zero kara Hajimeru Isekai Seikatsu", 3)
	if got != "/downloads/Bangumi/Re-Zero kara Hajimeru Isekai Seikatsu S03" {
		t.Fatalf("SavePath = %q", got)
	}
}

func TestRecoverSeries(t *testing.T) {
	tests := []struct {
		path   string
		ok     bool
		title  string
		season int
	}{
		{"/downloads/Bangumi/Foo S01", true, "Foo", 1},
		{"/downloads/Bangumi/Foo Bar S12/", true, "Foo Bar", 12},
		{`D:\Bangumi\Spy x Family S02`, true, "Spy x Family", 2},
		{"/downloads/Bangumi/Foo/Season 2", true, "Foo", 2},
		{"/downloads/Bangumi/Foo", false, "", 0},
		{"/downloads/Bangumi/Foo S1", false, "", 0},
		{"/downloads/Bangumi/Foo S00", false, "", 0},
		{"", false, "", 0},
	}
	for _, tt := range tests {
		got, ok := naming.RecoverSeries(tt.path)
		if ok != tt.ok {
			t.Fatalf("RecoverSeries(%q) ok = %v, want %v", tt.path, ok, tt.ok)
		}
		if ok && (got.Title != tt.title || got.Season != tt.season) {
			t.Fatalf("RecoverSeries(%q) = %+v", tt.path, got)
		}
	}

	series, ok := naming.RecoverSeries(naming.SavePath("/srv", "Foo", 4))
	if !ok || series.Title != "Foo" || series.Season != 4 {
		t.Fatalf("round trip = %+v, %v", series, ok)
	}
}
