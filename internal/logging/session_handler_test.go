package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestWithSessionID(t *testing.T) {
	var buf bytes.Buffer
	logger := WithSessionID(slog.New(slog.NewJSONHandler(&buf, nil)), "run-123").With("extra", "value")
	logger.Info("daemon started")

	output := buf.String()
	if !strings.Contains(output, `"session_id":"run-123"`) {
		t.Errorf("expected session_id in output, got: %s", output)
	}
	if !strings.Contains(output, `"extra":"value"`) {
		t.Errorf("expected extra attr in output, got: %s", output)
	}
}

func TestSessionIDHandlerNilBase(t *testing.T) {
	if _, ok := newSessionIDHandler(nil, "session-123").(NoopHandler); !ok {
		t.Error("expected NoopHandler when base is nil")
	}
}
