package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// prettyHandler writes one line per record:
//
//	2026-01-02 15:04:05 INFO  [renamer] rename applied  torrent=3f2a9c1b new_path="Foo S01E04.mkv"
//
// The component moves into the bracketed prefix and torrent hashes are cut to
// their first eight characters. Source locations are only printed for debug
// records.
type prettyHandler struct {
	mu        *sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
	// fields holds attrs bound through WithAttrs, already flattened with the
	// group prefix that was open at the time.
	fields []kv
	prefix string
}

type kv struct {
	key   string
	value slog.Value
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, w: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fields = slices.Clip(h.fields)
	for _, a := range attrs {
		next.fields = appendFlattened(next.fields, h.prefix, a)
	}
	return &next
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	fields := slices.Clone(h.fields)
	record.Attrs(func(a slog.Attr) bool {
		fields = appendFlattened(fields, h.prefix, a)
		return true
	})
	fields = lastValueWins(fields)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := strings.TrimSpace(record.Message)
	if msg == "" {
		msg = "(no message)"
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s %-5s ", formatTimestamp(ts), levelLabel(record.Level))
	if i := slices.IndexFunc(fields, func(f kv) bool { return f.key == FieldComponent }); i >= 0 {
		buf.WriteString("[" + attrString(fields[i].value) + "] ")
		fields = slices.Delete(fields, i, i+1)
	}
	buf.WriteString(msg)
	for _, f := range fields {
		key, value := f.key, formatValue(f.value)
		if key == FieldTorrentHash {
			key, value = "torrent", shortHash(attrString(f.value))
		}
		buf.WriteString("  " + key + "=" + value)
	}
	if h.addSource && record.Level < slog.LevelInfo && record.PC != 0 {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(&buf, "  (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func appendFlattened(dst []kv, prefix string, a slog.Attr) []kv {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, member := range a.Value.Group() {
			dst = appendFlattened(dst, prefix, member)
		}
		return dst
	}
	if a.Key == "" {
		return dst
	}
	return append(dst, kv{key: prefix + a.Key, value: a.Value})
}

// lastValueWins keeps each key at its first position with its latest value,
// so a per-call attr overrides one bound earlier with With.
func lastValueWins(fields []kv) []kv {
	seen := make(map[string]int, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if i, ok := seen[f.key]; ok {
			out[i].value = f.value
			continue
		}
		seen[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
