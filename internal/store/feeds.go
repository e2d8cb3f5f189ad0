package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Feed is a subscribed RSS source.
type Feed struct {
	ID        int64
	Name      string
	URL       string
	Enabled   bool
	CreatedAt time.Time
}

// AddFeed subscribes to url. Adding a url twice returns the existing feed.
func (s *Store) AddFeed(ctx context.Context, name, url string) (*Feed, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("feed url is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO feeds (name, url, enabled, created_at) VALUES (?, ?, 1, ?)
         ON CONFLICT(url) DO NOTHING`,
		nullableString(strings.TrimSpace(name)), url, timestamp(),
	); err != nil {
		return nil, fmt.Errorf("insert feed: %w", err)
	}

	feeds, err := s.queryFeeds(ctx, `WHERE url = ?`, url)
	if err != nil {
		return nil, err
	}
	if len(feeds) == 0 {
		return nil, fmt.Errorf("feed %s: %w", url, ErrNotFound)
	}
	return feeds[0], nil
}

// ListFeeds returns every feed, or only enabled ones.
func (s *Store) ListFeeds(ctx context.Context, enabledOnly bool) ([]*Feed, error) {
	if enabledOnly {
		return s.queryFeeds(ctx, `WHERE enabled = 1`)
	}
	return s.queryFeeds(ctx, "")
}

// SetFeedEnabled toggles whether probes fetch a feed.
func (s *Store) SetFeedEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.execWithRetry(ctx, `UPDATE feeds SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return requireRow(res, "feed", id)
}

// RemoveFeed deletes a feed. Torrents recorded from it are kept.
func (s *Store) RemoveFeed(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove feed: %w", err)
	}
	return requireRow(res, "feed", id)
}

func (s *Store) queryFeeds(ctx context.Context, where string, args ...any) ([]*Feed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, url, enabled, created_at FROM feeds `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list feeds: %w", err)
	}
	defer rows.Close()

	var feeds []*Feed
	for rows.Next() {
		var (
			feed       Feed
			name       sql.NullString
			enabled    int
			createdRaw string
		)
		if err := rows.Scan(&feed.ID, &name, &feed.URL, &enabled, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feed.Name = name.String
		feed.Enabled = enabled != 0
		feed.CreatedAt = parseTimeString(createdRaw)
		feeds = append(feeds, &feed)
	}
	return feeds, rows.Err()
}
