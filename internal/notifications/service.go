package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
)

const (
	userAgent     = "Auto-Bangumi-Go/0.1.0"
	defaultServer = "https://ntfy.sh/"
)

// Event names a notification kind.
type Event string

const (
	EventEpisodeRenamed   Event = "episode_renamed"
	EventTorrentAdded     Event = "torrent_added"
	EventRenamePassFailed Event = "rename_pass_failed"
	EventFeedProbeFailed  Event = "feed_probe_failed"
	EventTest             Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service publishes events.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When notifications are disabled or no topic is set, a noop implementation
// is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if !cfg.Notifications.Enable || topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topicEndpoint(topic),
		client:   &http.Client{Timeout: timeout},
		rename:   cfg.Notifications.Rename,
		errors:   cfg.Notifications.Errors,
	}
}

// topicEndpoint accepts either a full topic URL or a bare ntfy.sh topic name.
func topicEndpoint(topic string) string {
	if strings.Contains(topic, "://") {
		return topic
	}
	return defaultServer + strings.TrimPrefix(topic, "/")
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	rename   bool
	errors   bool
}

func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	msg, ok := n.format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func (n *ntfyService) format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventEpisodeRenamed:
		if !n.rename {
			return message{}, false
		}
		title := payloadString(payload, "title")
		return message{
			title: "Auto-Bangumi - New Episode",
			body: fmt.Sprintf("%s S%02d E%s is ready",
				title, payloadInt(payload, "season"), payloadString(payload, "episode")),
			tags: []string{"autobangumi", "episode", "renamed"},
		}, true
	case EventTorrentAdded:
		if !n.rename {
			return message{}, false
		}
		return message{
			title: "Auto-Bangumi - Downloading",
			body:  fmt.Sprintf("Added: %s", payloadString(payload, "name")),
			tags:  []string{"autobangumi", "torrent", "added"},
		}, true
	case EventRenamePassFailed, EventFeedProbeFailed:
		if !n.errors {
			return message{}, false
		}
		label := "rename pass"
		if event == EventFeedProbeFailed {
			label = "feed probe"
		}
		body := fmt.Sprintf("Error during %s: %s", label, strings.TrimSpace(payloadString(payload, "error")))
		return message{
			title:    "Auto-Bangumi - Error",
			body:     body,
			tags:     []string{"autobangumi", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Auto-Bangumi - Test",
			body:     "Notification system test",
			tags:     []string{"autobangumi", "test"},
			priority: "low",
		}, true
	default:
		return message{}, false
	}
}

func (n *ntfyService) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if msg.title != "" {
		req.Header.Set("Title", msg.title)
	}
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" && msg.priority != "default" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func payloadString(p Payload, key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}

func payloadInt(p Payload, key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
