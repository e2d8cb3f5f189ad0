package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "autobangumi.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.NewTailer(path, logs.Filter{}).Last(2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.NewTailer(filepath.Join(t.TempDir(), "none.log"), logs.Filter{}).Last(10)
	if err != nil || len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", lines, offset, err)
	}
}

func TestFilterByComponent(t *testing.T) {
	path := writeLog(t, `{"component":"renamer","event_type":"rename_pass_finished"}
{"component":"feed","event_type":"feed_probe_finished"}
plain text
{"component":"renamer","event_type":"file_renamed"}
`)
	lines, _, err := logs.NewTailer(path, logs.Filter{Component: "renamer"}).Last(10)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected two renamer lines, got %#v", lines)
	}

	lines, _, err = logs.NewTailer(path, logs.Filter{EventType: "feed_probe_finished"}).Last(10)
	if err != nil || len(lines) != 1 {
		t.Fatalf("expected one probe line, got %#v (%v)", lines, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	tailer := logs.NewTailer(path, logs.Filter{})
	_, offset, err := tailer.Last(1)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- tailer.Follow(ctx, offset, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			cancel()
		})
	}()

	time.Sleep(100 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected follow lines: %#v", got)
	}
}
