package logging_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

func TestNewWritesJSONLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", logging.LogFileName)
	var console bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &console, FilePath: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("feed probe finished", logging.Int("added", 2))
	logger.Debug("below level")

	if !strings.Contains(console.String(), "feed probe finished") {
		t.Fatalf("expected console copy, got %q", console.String())
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"feed probe finished"`) || !strings.Contains(string(content), `"added":2`) {
		t.Fatalf("unexpected log file contents: %s", content)
	}
	if strings.Contains(string(content), "below level") || !strings.Contains(string(content), `"level":"info"`) {
		t.Fatalf("unexpected log file contents: %s", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "renamer").Info("rename applied", logging.String("new_path", "Foo S01E04.mkv"))

	line := buf.String()
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "[renamer] rename applied") {
		t.Fatalf("expected component prefix, got %q", line)
	}
	if !strings.Contains(line, `new_path="Foo S01E04.mkv"`) {
		t.Fatalf("expected quoted value, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "pass-xyz")
	ctx = services.WithTorrentHash(ctx, "abc123")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, logger).Info("contextual log")

	out := buf.String()
	for _, want := range []string{`"correlation_id":"pass-xyz"`, `"torrent_hash":"abc123"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in %s", want, out)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WarnWithContext(logger, "rename failed", "rename_failed", logging.String(logging.FieldImpact, "file keeps its name"))

	out := buf.String()
	if !strings.Contains(out, `"event_type":"rename_failed"`) {
		t.Fatalf("expected event type, got %s", out)
	}
	if !strings.Contains(out, `"impact":"file keeps its name"`) {
		t.Fatalf("expected caller impact kept, got %s", out)
	}
	if !strings.Contains(out, `"error_hint"`) {
		t.Fatalf("expected default error hint, got %s", out)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "autobangumi-old.log")
	activePath := filepath.Join(dir, "autobangumi-active.log")
	newPath := filepath.Join(dir, "autobangumi-new.log")
	otherPath := filepath.Join(dir, "notes.txt")
	for _, path := range []string{oldPath, activePath, newPath, otherPath} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	for _, path := range []string{oldPath, activePath, otherPath} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}

	pruned := logging.CleanupOldLogs(logging.NewNop(), 7, logging.RetentionTarget{
		Dir:     dir,
		Pattern: "autobangumi-*.log",
		Exclude: []string{activePath},
	})
	if pruned != 1 {
		t.Fatalf("expected 1 pruned file, got %d", pruned)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err = %v", err)
	}
	for _, path := range []string{activePath, newPath, otherPath} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}

	if got := logging.CleanupOldLogs(logging.NewNop(), 0, logging.RetentionTarget{Dir: dir}); got != 0 {
		t.Fatalf("expected retention 0 to keep everything, pruned %d", got)
	}
}

func TestConsoleLoggerGroupsAndShortensHash(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Console: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logger.With(logging.String(logging.FieldTorrentHash, "3f2a9c1bdeadbeefdeadbeefdeadbeefdeadbeef"))
	logger.WithGroup("pass").Info("pass finished", logging.Int("renamed", 2))

	line := buf.String()
	if !strings.Contains(line, "torrent=3f2a9c1b ") && !strings.HasSuffix(strings.TrimSpace(line), "torrent=3f2a9c1b") {
		t.Fatalf("expected shortened hash, got %q", line)
	}
	if strings.Contains(line, "pass.torrent") {
		t.Fatalf("attr bound before the group must stay ungrouped: %q", line)
	}
	if !strings.Contains(line, "pass.renamed=2") {
		t.Fatalf("expected grouped attr, got %q", line)
	}
}
