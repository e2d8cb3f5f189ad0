package logging

import (
	"context"
	"log/slog"
)

// FieldSessionID tags every line written by one daemon run.
const FieldSessionID = "session_id"

// WithSessionID returns a logger whose records all carry sessionID at the top
// level, even inside groups opened later.
func WithSessionID(logger *slog.Logger, sessionID string) *slog.Logger {
	if logger == nil || sessionID == "" {
		return logger
	}
	return slog.New(newSessionIDHandler(logger.Handler(), sessionID))
}

type sessionIDHandler struct {
	slog.Handler
	id slog.Attr
}

func newSessionIDHandler(base slog.Handler, sessionID string) slog.Handler {
	if base == nil {
		return NoopHandler{}
	}
	return sessionIDHandler{Handler: base, id: slog.String(FieldSessionID, sessionID)}
}

func (h sessionIDHandler) Handle(ctx context.Context, record slog.Record) error {
	record.AddAttrs(h.id)
	return h.Handler.Handle(ctx, record)
}

func (h sessionIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return sessionIDHandler{Handler: h.Handler.WithAttrs(attrs), id: h.id}
}

func (h sessionIDHandler) WithGroup(name string) slog.Handler {
	return sessionIDHandler{Handler: h.Handler.WithGroup(name), id: h.id}
}
