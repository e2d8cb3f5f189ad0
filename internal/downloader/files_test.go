package downloader_test

import (
	"slices"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
)

func TestClassifyFile(t *testing.T) {
	cases := []struct {
		name string
		want downloader.FileKind
	}{
		{"Show - 01.mkv", downloader.FileMedia},
		{"Show - 01.MP4", downloader.FileMedia},
		{"sub/Show - 01.chs.ass", downloader.FileSubtitle},
		{`sub\Show - 01.SRT`, downloader.FileSubtitle},
		{"Show - 01.nfo", downloader.FileOther},
		{"cover.jpg", downloader.FileOther},
		{"README", downloader.FileOther},
	}
	for _, tc := range cases {
		if got := downloader.ClassifyFile(tc.name); got != tc.want {
			t.Fatalf("ClassifyFile(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSplitFilesKeepsListingOrder(t *testing.T) {
	files := []string{
		"Show/02.mkv",
		"Show/01.mkv",
		"Show/01.tc.ass",
		"Show/info.txt",
		"Show/02.sc.srt",
	}
	media, subtitles := downloader.SplitFiles(files)
	if want := []string{"Show/02.mkv", "Show/01.mkv"}; !slices.Equal(media, want) {
		t.Fatalf("media = %v, want %v", media, want)
	}
	if want := []string{"Show/01.tc.ass", "Show/02.sc.srt"}; !slices.Equal(subtitles, want) {
		t.Fatalf("subtitles = %v, want %v", subtitles, want)
	}
}
