package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/logging"
)

const defaultPollInterval = 250 * time.Millisecond

// Filter selects JSON log records by component or event type. Empty fields
// match everything; lines that are not JSON only pass an empty filter.
type Filter struct {
	Component string
	EventType string
}

func (f Filter) empty() bool {
	return f.Component == "" && f.EventType == ""
}

// Match reports whether line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	if f.Component != "" && record[logging.FieldComponent] != f.Component {
		return false
	}
	if f.EventType != "" && record[logging.FieldEventType] != f.EventType {
		return false
	}
	return true
}

// Tailer reads the daemon log file.
type Tailer struct {
	path   string
	filter Filter
	poll   time.Duration
}

// NewTailer returns a tailer for path.
func NewTailer(path string, filter Filter) *Tailer {
	return &Tailer{path: path, filter: filter, poll: defaultPollInterval}
}

// Last returns up to limit matching lines from the end of the file and the
// offset just past them. A missing file yields no lines and offset 0.
func (t *Tailer) Last(limit int) ([]string, int64, error) {
	file, err := t.open()
	if err != nil || file == nil {
		return nil, 0, err
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	ring := make([]string, 0, limit)
	offset, err := t.scan(file, func(line string) {
		if len(ring) == limit {
			ring = ring[1:]
		}
		ring = append(ring, line)
	})
	return ring, offset, err
}

// Follow calls emit for every matching line appended after offset until ctx
// is cancelled. A truncated or rotated file is re-read from the start.
func (t *Tailer) Follow(ctx context.Context, offset int64, emit func(string)) error {
	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()
	for {
		next, err := t.readFrom(offset, emit)
		if err != nil {
			return err
		}
		offset = next
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (t *Tailer) readFrom(offset int64, emit func(string)) (int64, error) {
	file, err := t.open()
	if err != nil || file == nil {
		return 0, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	return t.scan(file, emit)
}

func (t *Tailer) scan(file *os.File, emit func(string)) (int64, error) {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := scanner.Text(); t.filter.Match(line) {
			emit(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("read log file: %w", err)
	}
	offset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, fmt.Errorf("determine log offset: %w", err)
	}
	return offset, nil
}

// open returns nil without error when the file does not exist yet.
func (t *Tailer) open() (*os.File, error) {
	file, err := os.Open(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		file.Close()
		return nil, fmt.Errorf("log path %q is a directory", t.path)
	}
	return file, nil
}
