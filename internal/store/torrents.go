package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Torrent is a feed item handed to the download client.
type Torrent struct {
	ID        int64
	BangumiID int64
	FeedID    int64
	Name      string
	URL       string
	Hash      string
	// Downloaded is set once the client accepted the torrent.
	Downloaded bool
}

// AddTorrents records torrents in one transaction. A url that is already
// recorded is updated in place.
func (s *Store) AddTorrents(ctx context.Context, torrents []Torrent) error {
	if len(torrents) == 0 {
		return nil
	}
	return retryOnBusy(ctx, func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			return insertTorrents(ctx, tx, torrents)
		})
	})
}

func insertTorrents(ctx context.Context, tx *sql.Tx, torrents []Torrent) error {
	now := timestamp()
	for _, t := range torrents {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO torrents (bangumi_id, feed_id, name, url, hash, downloaded, created_at)
                 VALUES (?, ?, ?, ?, ?, ?, ?)
                 ON CONFLICT(url) DO UPDATE SET
                    bangumi_id = COALESCE(excluded.bangumi_id, torrents.bangumi_id),
                    hash = COALESCE(excluded.hash, torrents.hash),
                    downloaded = excluded.downloaded`,
			nullableID(t.BangumiID),
			nullableID(t.FeedID),
			t.Name,
			t.URL,
			nullableString(t.Hash),
			boolToInt(t.Downloaded),
			now,
		); err != nil {
			return fmt.Errorf("insert torrent %s: %w", t.Name, err)
		}
	}
	return nil
}

// CheckNew returns the urls among urls that have not been downloaded yet,
// preserving order.
func (s *Store) CheckNew(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return nil, nil
	}
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT url FROM torrents WHERE downloaded = 1 AND url IN (`+makePlaceholders(len(urls))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("check new torrents: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]struct{}, len(urls))
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scan torrent url: %w", err)
		}
		seen[u] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fresh := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; !ok {
			fresh = append(fresh, u)
		}
	}
	return fresh, nil
}

// BangumiIDByTorrentHash returns the series a torrent was added for. The
// most recent record wins when a hash was recorded more than once.
func (s *Store) BangumiIDByTorrentHash(ctx context.Context, hash string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT bangumi_id FROM torrents WHERE hash = ? AND bangumi_id IS NOT NULL ORDER BY id DESC LIMIT 1`,
		hash,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup bangumi by hash: %w", err)
	}
	return id, true, nil
}

// OffsetByTorrentHash resolves hash to its series and returns that series'
// episode offset. Torrents added outside the feed probe have no offset.
func (s *Store) OffsetByTorrentHash(ctx context.Context, hash string) (int, error) {
	id, ok, err := s.BangumiIDByTorrentHash(ctx, hash)
	if err != nil || !ok {
		return 0, err
	}
	return s.Offset(ctx, id)
}

// ListTorrents returns the torrents recorded for a series.
func (s *Store) ListTorrents(ctx context.Context, bangumiID int64) ([]Torrent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bangumi_id, feed_id, name, url, hash, downloaded FROM torrents WHERE bangumi_id = ? ORDER BY id`,
		bangumiID,
	)
	if err != nil {
		return nil, fmt.Errorf("list torrents: %w", err)
	}
	defer rows.Close()

	var out []Torrent
	for rows.Next() {
		var (
			t          Torrent
			bangumi    sql.NullInt64
			feed       sql.NullInt64
			hash       sql.NullString
			downloaded int
		)
		if err := rows.Scan(&t.ID, &bangumi, &feed, &t.Name, &t.URL, &hash, &downloaded); err != nil {
			return nil, fmt.Errorf("scan torrent: %w", err)
		}
		t.BangumiID = bangumi.Int64
		t.FeedID = feed.Int64
		t.Hash = hash.String
		t.Downloaded = downloaded != 0
		out = append(out, t)
	}
	return out, rows.Err()
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}
