package renamer_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/renamer"
	"github.com/KotaHv/Auto-Bangumi/internal/testsupport"
)

type offsets map[string]int

func (o offsets) OffsetByTorrentHash(_ context.Context, hash string) (int, error) {
	return o[hash], nil
}

func newRenamer(t *testing.T, client *testsupport.FakeClient, opts renamer.Options, off offsets) *renamer.Renamer {
	t.Helper()
	guard := downloader.NewGuard(client, filepath.Join(t.TempDir(), "session.lock"), logging.NewNop())
	return renamer.New(client, guard, off, opts, logging.NewNop())
}

func TestRunRenamesSingleFile(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{
		Hash:     "h1",
		Name:     "[Lilith-Raws] Foo - 05 [1080p]",
		SavePath: "/downloads/Bangumi/Foo S02",
	}, "[Lilith-Raws] Foo - 05 [1080p].mkv", "[Lilith-Raws] Foo - 05 [1080p].tc.ass")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyPlainName}, nil)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.PassID == "" {
		t.Fatal("expected pass id")
	}
	want := []string{"Foo S02E05.mkv", "Foo S02E05.zh-tw.ass"}
	if got := client.Files("h1"); !slices.Equal(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	if result.Renamed != 2 || result.Failed != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Notifications) != 1 {
		t.Fatalf("expected one notification, got %+v", result.Notifications)
	}
	n := result.Notifications[0]
	if n.OfficialTitle != "Foo" || n.Season != 2 || n.Episode != 5 {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !slices.Equal(client.Tags["h1"], []string{"Foo"}) {
		t.Fatalf("tags = %v", client.Tags["h1"])
	}
	if client.Logins != 1 || client.Logouts != 1 {
		t.Fatalf("session not scoped to pass: %d logins, %d logouts", client.Logins, client.Logouts)
	}
}

func TestRunAdvanceUsesCanonicalTitleAndOffset(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{
		Hash:     "h1",
		Name:     "[ANi] Sousou no Frieren - 03 [1080P][Baha][WEB-DL]",
		SavePath: "/downloads/Bangumi/葬送的芙莉莲 S01",
	}, "[ANi] Sousou no Frieren - 03 [1080P][Baha][WEB-DL].mp4")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance, GroupTag: true}, offsets{"h1": 1})
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"葬送的芙莉莲 S01E04.mp4"}
	if got := client.Files("h1"); !slices.Equal(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	if !slices.Equal(client.Tags["h1"], []string{"葬送的芙莉莲", "ANi"}) {
		t.Fatalf("tags = %v", client.Tags["h1"])
	}
}

func TestRunLeavesNamedFilesAlone(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "h1", Name: "Foo S01E05", SavePath: "/downloads/Bangumi/Foo S01"}, "Foo S01E05.mkv")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(client.Renames) != 0 || result.Renamed != 0 {
		t.Fatalf("expected no renames, got %v", client.Renames)
	}
}

func TestRunParseFailure(t *testing.T) {
	cases := []struct {
		name       string
		removeBad  bool
		wantDelete bool
	}{
		{"kept by default", false, false},
		{"deleted when remove_bad_torrent", true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := testsupport.NewFakeClient()
			client.Seed(downloader.Torrent{Hash: "bad", Name: "random", SavePath: "/downloads/Bangumi/Foo S01"}, "random.mkv")

			r := newRenamer(t, client, renamer.Options{Method: naming.PolicyPlainName, RemoveBad: tc.removeBad}, nil)
			result, err := r.Run(context.Background())
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if result.Failed != 1 {
				t.Fatalf("failed = %d, want 1", result.Failed)
			}
			if got := slices.Contains(client.Deleted, "bad"); got != tc.wantDelete {
				t.Fatalf("deleted = %v, want %v", got, tc.wantDelete)
			}
			if tc.wantDelete && len(client.Tags["bad"]) != 0 {
				t.Fatalf("deleted torrent was tagged: %v", client.Tags["bad"])
			}
		})
	}
}

func TestRunSingleRenameFailureIsSoft(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "h1", Name: "[Sub] Foo - 01", SavePath: "/downloads/Bangumi/Foo S01"}, "[Sub] Foo - 01.mkv")
	client.Seed(downloader.Torrent{Hash: "h2", Name: "[Sub] Foo - 02", SavePath: "/downloads/Bangumi/Foo S01"}, "[Sub] Foo - 02.mkv")
	client.RenameErrors["[Sub] Foo - 01.mkv"] = errors.New("conflict")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyPlainName, RemoveBad: true}, nil)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(client.Deleted) != 0 {
		t.Fatalf("single file rename failure must not delete: %v", client.Deleted)
	}
	if result.Failed != 1 || result.Renamed != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := client.Files("h2"); !slices.Equal(got, []string{"Foo S01E02.mkv"}) {
		t.Fatalf("second torrent not renamed: %v", got)
	}
}

func TestRunCollection(t *testing.T) {
	files := []string{
		"Foo/[Sub] Foo - 01.mkv",
		"Foo/[Sub] Foo - 02.mkv",
		"Foo/[Sub] Foo - 03.mkv",
	}

	t.Run("renames and recategorizes", func(t *testing.T) {
		client := testsupport.NewFakeClient()
		client.Seed(downloader.Torrent{Hash: "c1", Name: "[Sub] Foo [01-03]", SavePath: "/downloads/Bangumi/Foo S01"}, files...)

		r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
		result, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		want := []string{"Foo S01E01.mkv", "Foo S01E02.mkv", "Foo S01E03.mkv"}
		if got := client.Files("c1"); !slices.Equal(got, want) {
			t.Fatalf("files = %v, want %v", got, want)
		}
		if client.Categories["c1"] != "BangumiCollection" {
			t.Fatalf("category = %q", client.Categories["c1"])
		}
		if len(result.Notifications) != 0 {
			t.Fatalf("collections do not notify: %+v", result.Notifications)
		}
	})

	t.Run("bare episode names take the save path title", func(t *testing.T) {
		client := testsupport.NewFakeClient()
		client.Seed(downloader.Torrent{Hash: "c1", Name: "Foo S01", SavePath: "/downloads/Bangumi/Foo S01"},
			"Foo/S01E01.mkv", "Foo/S01E02.mkv")

		r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
		result, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		want := []string{"Foo S01E01.mkv", "Foo S01E02.mkv"}
		if got := client.Files("c1"); !slices.Equal(got, want) {
			t.Fatalf("files = %v, want %v", got, want)
		}
		if result.Renamed != 2 || result.Failed != 0 {
			t.Fatalf("unexpected result: %+v", result)
		}
	})

	t.Run("stops at first failed rename", func(t *testing.T) {
		client := testsupport.NewFakeClient()
		client.Seed(downloader.Torrent{Hash: "c1", Name: "[Sub] Foo [01-03]", SavePath: "/downloads/Bangumi/Foo S01"}, files...)
		client.RenameErrors[files[1]] = errors.New("conflict")

		r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
		result, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		want := []string{"Foo S01E01.mkv", files[1], files[2]}
		if got := client.Files("c1"); !slices.Equal(got, want) {
			t.Fatalf("files = %v, want %v", got, want)
		}
		if result.Renamed != 1 || result.Failed != 1 {
			t.Fatalf("unexpected result: %+v", result)
		}
		if len(client.Deleted) != 0 {
			t.Fatalf("collection deleted without remove_bad_torrent: %v", client.Deleted)
		}
	})

	t.Run("deletes on failure when remove_bad_torrent", func(t *testing.T) {
		client := testsupport.NewFakeClient()
		client.Seed(downloader.Torrent{Hash: "c1", Name: "[Sub] Foo [01-03]", SavePath: "/downloads/Bangumi/Foo S01"}, files...)
		client.RenameErrors[files[0]] = errors.New("conflict")

		r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance, RemoveBad: true}, nil)
		if _, err := r.Run(context.Background()); err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if !slices.Equal(client.Deleted, []string{"c1"}) {
			t.Fatalf("deleted = %v", client.Deleted)
		}
		if client.Categories["c1"] == "BangumiCollection" {
			t.Fatal("deleted collection was recategorized")
		}
	})
}

func TestRunTagsTorrentWithoutMedia(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "h1", Name: "[Sub] Foo - 05 subs", SavePath: "/downloads/Bangumi/Foo S01"},
		"[Sub] Foo - 05.ass", "readme.txt")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(client.Renames) != 0 || result.Renamed != 0 {
		t.Fatalf("expected no renames, got %v", client.Renames)
	}
	if !slices.Equal(client.Tags["h1"], []string{"Foo"}) {
		t.Fatalf("tags = %v, want [Foo]", client.Tags["h1"])
	}
}

func TestRunSubtitleFailuresNeverDelete(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "h1", Name: "[Sub] Foo - 05", SavePath: "/downloads/Bangumi/Foo S01"},
		"[Sub] Foo - 05.mkv", "[Sub] Foo - 05.ass")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance, RemoveBad: true}, nil)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{"Foo S01E05.mkv", "[Sub] Foo - 05.ass"}
	if got := client.Files("h1"); !slices.Equal(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	if len(client.Deleted) != 0 {
		t.Fatalf("subtitle failure deleted torrent: %v", client.Deleted)
	}
	if result.Failed != 1 {
		t.Fatalf("failed = %d, want 1", result.Failed)
	}
}

func TestRunRemovesStaleRevisions(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "v1", Name: "[Sub] Foo - 05 [1080p]", SavePath: "/downloads/Bangumi/Foo S01"}, "[Sub] Foo - 05 [1080p].mkv")
	client.Seed(downloader.Torrent{Hash: "v2", Name: "[Sub] Foo - 05v2 [1080p]", SavePath: "/downloads/Bangumi/Foo S01"}, "[Sub] Foo - 05v2 [1080p].mkv")
	client.Seed(downloader.Torrent{Hash: "o1", Name: "[Sub] Foo - 06 [1080p]", SavePath: "/downloads/Bangumi/Foo S01"}, "[Sub] Foo - 06 [1080p].mkv")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance, RetainLatest: true}, nil)
	result, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !slices.Equal(client.Deleted, []string{"v1"}) {
		t.Fatalf("deleted = %v, want [v1]", client.Deleted)
	}
	if result.Deleted != 1 || result.Torrents != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, r := range client.Renames {
		if r.Hash == "v1" {
			t.Fatalf("deleted torrent renamed: %+v", r)
		}
	}
	if got := client.Files("v2"); !slices.Equal(got, []string{"Foo S01E05.mkv"}) {
		t.Fatalf("latest revision not renamed: %v", got)
	}
}

func TestRunKeepsRevisionMarkerWhenRetainingAll(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "v2", Name: "[Sub] Foo - 05v2 [1080p]", SavePath: "/downloads/Bangumi/Foo S01"}, "[Sub] Foo - 05v2 [1080p].mkv")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := client.Files("v2"); !slices.Equal(got, []string{"Foo S01E05v2.mkv"}) {
		t.Fatalf("files = %v", got)
	}
}

func TestRunSkipsUnrecognizedSavePath(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Seed(downloader.Torrent{Hash: "h1", Name: "[Sub] Foo - 05", SavePath: "/downloads/misc"}, "[Sub] Foo - 05.mkv")

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
	if _, err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(client.Renames) != 0 || len(client.Tags["h1"]) != 0 {
		t.Fatalf("unrecognized save path touched: renames=%v tags=%v", client.Renames, client.Tags["h1"])
	}
}

func TestRunRejectedWhileSessionActive(t *testing.T) {
	client := testsupport.NewFakeClient()
	guard := downloader.NewGuard(client, "", logging.NewNop())
	r := renamer.New(client, guard, nil, renamer.Options{Method: naming.PolicyNone}, logging.NewNop())

	var inner error
	if err := guard.Do(context.Background(), func(ctx context.Context) error {
		_, inner = r.Run(ctx)
		return nil
	}); err != nil {
		t.Fatalf("outer session failed: %v", err)
	}
	if !errors.Is(inner, downloader.ErrSessionActive) {
		t.Fatalf("expected ErrSessionActive, got %v", inner)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithRenameMethod("advance"), testsupport.WithRetainLatest(true))
	opts, err := renamer.OptionsFromConfig(cfg)
	if err != nil {
		t.Fatalf("OptionsFromConfig failed: %v", err)
	}
	if opts.Method != naming.PolicyAdvance || !opts.RetainLatest || opts.CollectionCategory != "BangumiCollection" {
		t.Fatalf("unexpected options: %+v", opts)
	}

	cfg.BangumiManage.RenameMethod = "fancy"
	if _, err := renamer.OptionsFromConfig(cfg); !errors.Is(err, naming.ErrUnknownPolicy) {
		t.Fatalf("expected ErrUnknownPolicy, got %v", err)
	}
}

func TestUntagRemovesSeriesTag(t *testing.T) {
	client := testsupport.NewFakeClient()
	client.Tags["h1"] = []string{"Foo Bar", "ANi"}
	client.Tags["h2"] = []string{"Foo Bar"}
	client.Tags["h3"] = []string{"Other"}

	r := newRenamer(t, client, renamer.Options{Method: naming.PolicyAdvance}, nil)
	n, err := r.Untag(context.Background(), "Foo, Bar", []string{"h1", "", "h2"})
	if err != nil {
		t.Fatalf("Untag: %v", err)
	}
	if n != 2 {
		t.Fatalf("untagged %d torrents, want 2", n)
	}
	if !slices.Equal(client.Tags["h1"], []string{"ANi"}) || len(client.Tags["h2"]) != 0 {
		t.Fatalf("tags = %v", client.Tags)
	}
	if !slices.Equal(client.Tags["h3"], []string{"Other"}) {
		t.Fatalf("unrelated torrent touched: %v", client.Tags["h3"])
	}
	if client.Logins != 1 || client.Logouts != 1 {
		t.Fatalf("untag not scoped to a session: %d logins, %d logouts", client.Logins, client.Logouts)
	}

	if n, err := r.Untag(context.Background(), "Foo Bar", nil); err != nil || n != 0 {
		t.Fatalf("Untag(nil) = %d, %v", n, err)
	}
	if client.Logins != 1 {
		t.Fatal("empty untag opened a session")
	}
}
