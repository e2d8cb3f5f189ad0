package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/notifications"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
)

type captured struct {
	calls    int
	title    string
	body     string
	tags     string
	priority string
}

func newServer(t *testing.T, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got.calls++
		got.title = r.Header.Get("Title")
		got.tags = r.Header.Get("Tags")
		got.priority = r.Header.Get("Priority")
		got.body = string(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewServiceReturnsNoopWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.Enable = true
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.Publish(context.Background(), notifications.EventTest, nil); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		event          notifications.Event
		payload        notifications.Payload
		expectTitle    string
		expectBody     string
		expectTags     string
		expectPriority string
	}{
		{
			name:  "episode renamed",
			event: notifications.EventEpisodeRenamed,
			payload: notifications.Payload{
				"title":   "葬送的芙莉莲",
				"season":  1,
				"episode": parser.Episode(12.5),
			},
			expectTitle: "Auto-Bangumi - New Episode",
			expectBody:  "葬送的芙莉莲 S01 E12.5 is ready",
			expectTags:  "autobangumi,episode,renamed",
		},
		{
			name:        "torrent added",
			event:       notifications.EventTorrentAdded,
			payload:     notifications.Payload{"name": "[Sub] Foo - 05"},
			expectTitle: "Auto-Bangumi - Downloading",
			expectBody:  "Added: [Sub] Foo - 05",
			expectTags:  "autobangumi,torrent,added",
		},
		{
			name:           "rename pass failed",
			event:          notifications.EventRenamePassFailed,
			payload:        notifications.Payload{"error": errors.New("login refused")},
			expectTitle:    "Auto-Bangumi - Error",
			expectBody:     "Error during rename pass: login refused",
			expectTags:     "autobangumi,error,alert",
			expectPriority: "high",
		},
		{
			name:           "test",
			event:          notifications.EventTest,
			expectTitle:    "Auto-Bangumi - Test",
			expectBody:     "Notification system test",
			expectTags:     "autobangumi,test",
			expectPriority: "low",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got captured
			srv := newServer(t, &got)
			cfg := config.Default()
			cfg.Notifications.Enable = true
			cfg.Notifications.NtfyTopic = srv.URL + "/anime"

			svc := notifications.NewService(&cfg)
			if err := svc.Publish(context.Background(), tc.event, tc.payload); err != nil {
				t.Fatalf("Publish failed: %v", err)
			}
			if got.title != tc.expectTitle || got.body != tc.expectBody || got.tags != tc.expectTags || got.priority != tc.expectPriority {
				t.Fatalf("unexpected request: %+v", got)
			}
		})
	}
}

func TestNtfyServiceHonorsEventSwitches(t *testing.T) {
	var got captured
	srv := newServer(t, &got)
	cfg := config.Default()
	cfg.Notifications.Enable = true
	cfg.Notifications.NtfyTopic = srv.URL + "/anime"
	cfg.Notifications.Rename = false
	cfg.Notifications.Errors = false

	svc := notifications.NewService(&cfg)
	ctx := context.Background()
	for _, event := range []notifications.Event{
		notifications.EventEpisodeRenamed,
		notifications.EventTorrentAdded,
		notifications.EventRenamePassFailed,
		notifications.EventFeedProbeFailed,
	} {
		if err := svc.Publish(ctx, event, notifications.Payload{}); err != nil {
			t.Fatalf("Publish(%s) failed: %v", event, err)
		}
	}
	if got.calls != 0 {
		t.Fatalf("silenced events were sent: %d calls", got.calls)
	}
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic reserved", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Notifications.Enable = true
	cfg.Notifications.NtfyTopic = srv.URL + "/anime"
	if err := notifications.NewService(&cfg).Publish(context.Background(), notifications.EventTest, nil); err == nil {
		t.Fatal("expected error from 403 response")
	}
}
