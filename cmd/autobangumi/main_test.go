package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("AB_DOWNLOADER_PASSWORD", "hunter2")

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "hunter2") {
		t.Fatalf("expected password redacted, got %s", out)
	}
	requireContains(t, out, "[downloader]")

	out, _, err = runCLI(t, []string{"config", "show", "--show-secrets"}, env.configPath)
	if err != nil {
		t.Fatalf("config show --show-secrets: %v", err)
	}
	requireContains(t, out, "hunter2")
}

func TestBangumiLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"bangumi", "add", "葬送的芙莉莲", "--raw", "Sousou no Frieren", "--season", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("bangumi add: %v", err)
	}
	requireContains(t, out, "Series 1: 葬送的芙莉莲 S02 -> /downloads/Bangumi/葬送的芙莉莲 S02")

	if _, _, err := runCLI(t, []string{"bangumi", "offset", "--", "1", "-12"}, env.configPath); err != nil {
		t.Fatalf("bangumi offset: %v", err)
	}

	out, _, err = runCLI(t, []string{"bangumi", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("bangumi list: %v", err)
	}
	var listed []struct {
		ID       int64
		TitleRaw string
		Season   int
		Offset   int
	}
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 || listed[0].TitleRaw != "Sousou no Frieren" || listed[0].Offset != -12 || listed[0].Season != 2 {
		t.Fatalf("unexpected series %+v", listed)
	}

	if _, _, err := runCLI(t, []string{"bangumi", "remove", "1"}, env.configPath); err != nil {
		t.Fatalf("bangumi remove: %v", err)
	}
	out, _, err = runCLI(t, []string{"bangumi", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("bangumi list: %v", err)
	}
	requireContains(t, out, "No series")

	if _, _, err := runCLI(t, []string{"bangumi", "offset", "abc", "1"}, env.configPath); err == nil {
		t.Fatal("expected invalid id error")
	}
}

func TestBangumiRemoveUntag(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"bangumi", "add", "葬送的芙莉莲"}, env.configPath); err != nil {
		t.Fatalf("bangumi add: %v", err)
	}
	// No torrents are recorded, so no client session is opened.
	out, _, err := runCLI(t, []string{"bangumi", "remove", "1", "--untag"}, env.configPath)
	if err != nil {
		t.Fatalf("bangumi remove --untag: %v", err)
	}
	requireContains(t, out, "Series 1 removed")
	requireContains(t, out, `Removed tag "葬送的芙莉莲" from 0 torrents`)

	if _, _, err := runCLI(t, []string{"bangumi", "remove", "1", "--untag"}, env.configPath); err == nil {
		t.Fatal("expected error removing a removed series")
	}
}

func TestFeedLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"feed", "add", "ftp://example.com/rss"}, env.configPath); err == nil {
		t.Fatal("expected non-http feed to be rejected")
	}
	out, _, err := runCLI(t, []string{"feed", "add", "https://mikanani.me/RSS/MyBangumi?token=x", "--name", "mikan"}, env.configPath)
	if err != nil {
		t.Fatalf("feed add: %v", err)
	}
	requireContains(t, out, "Feed 1:")

	if _, _, err := runCLI(t, []string{"feed", "disable", "1"}, env.configPath); err != nil {
		t.Fatalf("feed disable: %v", err)
	}
	out, _, err = runCLI(t, []string{"feed", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("feed list: %v", err)
	}
	requireContains(t, out, "mikan")
	requireContains(t, out, "no")

	if _, _, err := runCLI(t, []string{"feed", "remove", "1"}, env.configPath); err != nil {
		t.Fatalf("feed remove: %v", err)
	}
	out, _, err = runCLI(t, []string{"feed", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("feed list: %v", err)
	}
	requireContains(t, out, "No feeds")
}

func TestFeedProbeDryRun(t *testing.T) {
	env := setupCLITestEnv(t)
	hash := strings.Repeat("a", 40)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<rss><channel><title>mikan</title><item><title>[Lilith-Raws] 葬送的芙莉莲 - 05 [1080p]</title><enclosure url="%s/dl/%s.torrent"/></item></channel></rss>`, srv.URL, hash)
	}))
	defer srv.Close()

	if _, _, err := runCLI(t, []string{"feed", "add", srv.URL + "/rss"}, env.configPath); err != nil {
		t.Fatalf("feed add: %v", err)
	}
	if _, _, err := runCLI(t, []string{"bangumi", "add", "葬送的芙莉莲"}, env.configPath); err != nil {
		t.Fatalf("bangumi add: %v", err)
	}

	out, _, err := runCLI(t, []string{"feed", "probe", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("feed probe: %v", err)
	}
	requireContains(t, out, "Would add 1 of 1 items from 1 feeds")
	requireContains(t, out, "/downloads/Bangumi/葬送的芙莉莲 S01")
}

func TestParseCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"parse", "--json", "[Lilith-Raws] Sousou no Frieren - 05v2 [1080p].mp4"}, env.configPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var reports []parseReport
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode parse output: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected one report, got %d", len(reports))
	}
	got := reports[0]
	if got.Error != "" || got.Title != "Sousou no Frieren" || got.Episode != "5" || got.Revision != 2 {
		t.Fatalf("unexpected report %+v", got)
	}
	if got.Target != "Sousou no Frieren S01E05v2.mp4" || got.Resolution != "1080p" {
		t.Fatalf("unexpected target %q resolution %q", got.Target, got.Resolution)
	}

	out, _, err = runCLI(t, []string{"parse", "no episode here.mkv"}, env.configPath)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	requireContains(t, out, "Error")
}

func TestPreflightSkipDownloader(t *testing.T) {
	env := setupCLITestEnv(t, withRSSDisabled())

	out, _, err := runCLI(t, []string{"preflight", "--skip-downloader"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, out)
	}
	requireContains(t, out, "[SKIP] --skip-downloader")
	requireContains(t, out, "[OK]")
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"logs"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries available")

	if err := os.MkdirAll(env.logDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	content := `{"component":"renamer","msg":"rename pass finished"}
{"component":"feed","msg":"feed probe finished"}
`
	if err := os.WriteFile(filepath.Join(env.logDir, "autobangumi.log"), []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	out, _, err = runCLI(t, []string{"logs", "--component", "feed"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "feed probe finished")
	if strings.Contains(out, "rename pass finished") {
		t.Fatalf("expected renamer record filtered out, got %s", out)
	}
}
