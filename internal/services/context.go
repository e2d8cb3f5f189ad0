package services

import "context"

type contextKey string

const (
	requestIDKey   contextKey = "request_id"
	torrentHashKey contextKey = "torrent_hash"
)

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTorrentHash annotates context with the torrent being processed.
func WithTorrentHash(ctx context.Context, hash string) context.Context {
	if hash == "" {
		return ctx
	}
	return context.WithValue(ctx, torrentHashKey, hash)
}

// TorrentHashFromContext returns the torrent hash if present.
func TorrentHashFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(torrentHashKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
