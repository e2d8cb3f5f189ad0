package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/feed"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

type stubDownloader struct {
	loginErr error
	version  string
}

func (s stubDownloader) Login(context.Context) error { return s.loginErr }

func (s stubDownloader) Version(context.Context) (string, error) { return s.version, nil }

func TestCheckDownloader(t *testing.T) {
	result := CheckDownloader(context.Background(), stubDownloader{version: "v4.6.7"})
	if !result.Passed || result.Detail != "qBittorrent v4.6.7" {
		t.Fatalf("unexpected result: %+v", result)
	}

	result = CheckDownloader(context.Background(), stubDownloader{loginErr: errors.New("forbidden")})
	if result.Passed || !strings.Contains(result.Detail, "login failed") {
		t.Fatalf("expected login failure, got %+v", result)
	}

	if result := CheckDownloader(context.Background(), nil); result.Passed {
		t.Fatal("expected nil downloader to fail")
	}
}

func TestCheckFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rss" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`<rss><channel><title>Mikan</title><item><title>a</title><link>http://x/a</link></item></channel></rss>`))
	}))
	defer srv.Close()

	fetcher := feed.NewFetcherWithClient(srv.Client())
	result := CheckFeed(context.Background(), fetcher, srv.URL+"/rss")
	if !result.Passed || result.Detail != "Mikan (1 items)" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result := CheckFeed(context.Background(), fetcher, srv.URL+"/gone"); result.Passed {
		t.Fatal("expected missing feed to fail")
	}
}

func TestCheckLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"ok":true}`}}},
		})
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.ExperimentalLLM.APIKey = "test"
	cfg.ExperimentalLLM.BaseURL = srv.URL
	result := CheckLLM(context.Background(), &cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got %s", result.Detail)
	}

	cfg.ExperimentalLLM.APIKey = ""
	if result := CheckLLM(context.Background(), &cfg); result.Passed {
		t.Fatal("expected missing key to fail")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, Targets{}); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.ExperimentalLLM.Enable = false

	results := RunAll(context.Background(), &cfg, Targets{Downloader: stubDownloader{version: "v5.0.0"}})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_SkipsFeedsWhenParserDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.DataDir = t.TempDir()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "missing")
	cfg.RSSParser.Enable = false

	results := RunAll(context.Background(), &cfg, Targets{
		Fetcher:  feed.NewFetcherWithClient(nil),
		FeedURLs: []string{"http://127.0.0.1:1/rss"},
	})
	if len(results) != 2 {
		t.Fatalf("expected only directory checks, got %+v", results)
	}
	if failed := Failed(results); len(failed) != 1 || failed[0].Name != "Log directory" {
		t.Fatalf("expected log directory failure, got %+v", failed)
	}
}
