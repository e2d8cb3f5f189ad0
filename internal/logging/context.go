package logging

import (
	"context"
	"log/slog"

	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldCorrelationID carries the rename pass or feed probe id.
	FieldCorrelationID = "correlation_id"
	// FieldTorrentHash is the info-hash of the torrent a line refers to.
	FieldTorrentHash = "torrent_hash"
	// FieldEventType classifies a line for filtering ("rename_applied", "feed_item_skipped").
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldDecisionType names the decision a line records.
	FieldDecisionType = "decision_type"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 2)
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldCorrelationID, rid))
	}
	if hash, ok := services.TorrentHashFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldTorrentHash, hash))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
