package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Bangumi is one tracked series season.
type Bangumi struct {
	ID            int64
	OfficialTitle string
	// TitleRaw is the title text as it appears in release names; feed items
	// are matched against it.
	TitleRaw  string
	Year      string
	Season    int
	GroupName string
	// Filter holds per-series title regexes that drop feed items.
	Filter    []string
	Offset    int
	RSSLink   string
	SavePath  string
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const bangumiColumns = "id, official_title, title_raw, year, season, group_name, filter, episode_offset, rss_link, save_path, deleted, created_at, updated_at"

func scanBangumi(scanner interface{ Scan(dest ...any) error }) (*Bangumi, error) {
	var (
		b          Bangumi
		year       sql.NullString
		groupName  sql.NullString
		filter     string
		rssLink    sql.NullString
		savePath   sql.NullString
		deleted    int
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&b.ID,
		&b.OfficialTitle,
		&b.TitleRaw,
		&year,
		&b.Season,
		&groupName,
		&filter,
		&b.Offset,
		&rssLink,
		&savePath,
		&deleted,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	b.Year = year.String
	b.GroupName = groupName.String
	b.Filter = splitFilter(filter)
	b.RSSLink = rssLink.String
	b.SavePath = savePath.String
	b.Deleted = deleted != 0
	b.CreatedAt = parseTimeString(createdRaw)
	b.UpdatedAt = parseTimeString(updatedRaw)
	return &b, nil
}

// AddBangumi inserts a series and returns it with its assigned id.
func (s *Store) AddBangumi(ctx context.Context, b *Bangumi) (*Bangumi, error) {
	if b == nil {
		return nil, errors.New("bangumi is nil")
	}
	if strings.TrimSpace(b.OfficialTitle) == "" || strings.TrimSpace(b.TitleRaw) == "" {
		return nil, errors.New("official title and raw title are required")
	}
	season := b.Season
	if season < 1 {
		season = 1
	}
	now := timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO bangumi (
            official_title, title_raw, year, season, group_name, filter,
            episode_offset, rss_link, save_path, deleted, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		strings.TrimSpace(b.OfficialTitle),
		strings.TrimSpace(b.TitleRaw),
		nullableString(b.Year),
		season,
		nullableString(b.GroupName),
		strings.Join(b.Filter, ","),
		b.Offset,
		nullableString(b.RSSLink),
		nullableString(b.SavePath),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bangumi: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetBangumi(ctx, id)
}

// GetBangumi returns the series with id, or nil when it does not exist.
func (s *Store) GetBangumi(ctx context.Context, id int64) (*Bangumi, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bangumiColumns+` FROM bangumi WHERE id = ?`, id)
	b, err := scanBangumi(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bangumi: %w", err)
	}
	return b, nil
}

// ListBangumi returns series that have not been deleted, oldest first.
func (s *Store) ListBangumi(ctx context.Context) ([]*Bangumi, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bangumiColumns+` FROM bangumi WHERE deleted = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list bangumi: %w", err)
	}
	defer rows.Close()

	var out []*Bangumi
	for rows.Next() {
		b, err := scanBangumi(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bangumi: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// SetOffset changes the episode offset applied when renaming a series.
func (s *Store) SetOffset(ctx context.Context, id int64, offset int) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE bangumi SET episode_offset = ?, updated_at = ? WHERE id = ?`,
		offset, timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("set offset: %w", err)
	}
	return requireRow(res, "bangumi", id)
}

// SetSavePath records where the series' torrents are stored.
func (s *Store) SetSavePath(ctx context.Context, id int64, savePath string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE bangumi SET save_path = ?, updated_at = ? WHERE id = ?`,
		nullableString(savePath), timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("set save path: %w", err)
	}
	return requireRow(res, "bangumi", id)
}

// DeleteBangumi marks a series deleted. Its torrents stay recorded so the
// feed probe does not download them again.
func (s *Store) DeleteBangumi(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE bangumi SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`,
		timestamp(), id,
	)
	if err != nil {
		return fmt.Errorf("delete bangumi: %w", err)
	}
	return requireRow(res, "bangumi", id)
}

// Offset returns the episode offset of a series. Unknown series have no offset.
func (s *Store) Offset(ctx context.Context, bangumiID int64) (int, error) {
	var offset int
	err := s.db.QueryRowContext(ctx, `SELECT episode_offset FROM bangumi WHERE id = ?`, bangumiID).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("lookup offset: %w", err)
	}
	return offset, nil
}

// ErrNotFound is returned when an update targets a row that does not exist.
var ErrNotFound = errors.New("not found")

func requireRow(res sql.Result, table string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", table, id, ErrNotFound)
	}
	return nil
}

func splitFilter(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
