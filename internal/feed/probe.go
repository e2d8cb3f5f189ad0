package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
	"github.com/KotaHv/Auto-Bangumi/internal/revision"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
	"github.com/KotaHv/Auto-Bangumi/internal/store"
)

// Store is the persistence a probe reads subscriptions from and records
// torrents into.
type Store interface {
	ListFeeds(ctx context.Context, enabledOnly bool) ([]*store.Feed, error)
	ListBangumi(ctx context.Context) ([]*store.Bangumi, error)
	CheckNew(ctx context.Context, urls []string) ([]string, error)
	AddTorrents(ctx context.Context, torrents []store.Torrent) error
}

// Client adds torrents to the download client.
type Client interface {
	AddTorrent(ctx context.Context, url string, opts downloader.AddOptions) error
}

// ReleaseExtractor is an alternative release name reader consulted when the
// pattern catalog cannot parse a name.
type ReleaseExtractor interface {
	ExtractRelease(ctx context.Context, name, language string) (parser.Release, error)
}

// Options are the probe settings.
type Options struct {
	SaveRoot     string
	Category     string
	GlobalFilter []string
	Language     string
	DryRun       bool
}

// OptionsFromConfig reads probe settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		SaveRoot:     cfg.Downloader.Path,
		Category:     cfg.Downloader.Category,
		GlobalFilter: cfg.RSSParser.Filter,
		Language:     cfg.RSSParser.Language,
	}
}

// Added is one torrent handed to the download client.
type Added struct {
	FeedID    int64
	BangumiID int64
	Title     string
	Season    int
	Name      string
	URL       string
	Hash      string
	SavePath  string
	Metadata  Metadata
}

// Summary reports one probe.
type Summary struct {
	ProbeID    string
	Feeds      int
	Items      int
	Filtered   int
	Unmatched  int
	Superseded int
	Known      int
	Failed     int
	Added      []Added
	Errors     []error
	Duration   time.Duration
}

// Prober runs feed probes.
type Prober struct {
	store     Store
	client    Client
	guard     *downloader.Guard
	fetcher   *Fetcher
	extractor ReleaseExtractor
	opts      Options
	logger    *slog.Logger
}

// NewProber wires a prober. guard and extractor may be nil.
func NewProber(st Store, client Client, guard *downloader.Guard, fetcher *Fetcher, extractor ReleaseExtractor, opts Options, logger *slog.Logger) *Prober {
	if fetcher == nil {
		fetcher = NewFetcherWithClient(nil)
	}
	if opts.Category == "" {
		opts.Category = "Bangumi"
	}
	return &Prober{
		store:     st,
		client:    client,
		guard:     guard,
		fetcher:   fetcher,
		extractor: extractor,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "feed"),
	}
}

type pending struct {
	feedID  int64
	item    Item
	bangumi *store.Bangumi
}

// Probe fetches every enabled feed and adds the new episodes of tracked
// series. Per-feed failures are logged and collected in the summary; the
// returned error covers only store and filter failures that stop the probe.
func (p *Prober) Probe(ctx context.Context) (summary Summary, err error) {
	summary = Summary{ProbeID: uuid.NewString()}
	ctx = services.WithRequestID(ctx, summary.ProbeID)
	logger := logging.WithContext(ctx, p.logger)
	start := time.Now()
	defer func() { summary.Duration = time.Since(start) }()

	global, err := NewFilter(p.opts.GlobalFilter)
	if err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "feed", "filter", "rss_parser.filter", err)
	}
	feeds, err := p.store.ListFeeds(ctx, true)
	if err != nil {
		return summary, fmt.Errorf("list feeds: %w", err)
	}
	series, err := p.store.ListBangumi(ctx)
	if err != nil {
		return summary, fmt.Errorf("list bangumi: %w", err)
	}
	seriesFilters := make(map[int64]*Filter, len(series))
	for _, b := range series {
		filter, err := NewFilter(b.Filter)
		if err != nil {
			logging.WarnWithContext(logger, "series filter ignored", "series_filter_invalid",
				logging.String("official_title", b.OfficialTitle),
				logging.Error(err),
				logging.String(logging.FieldImpact, "items of this series are not filtered"),
			)
			continue
		}
		seriesFilters[b.ID] = filter
	}

	summary.Feeds = len(feeds)
	var matched []pending
	seen := make(map[string]struct{})
	for _, f := range feeds {
		_, items, err := p.fetcher.Fetch(ctx, f.URL)
		if err != nil {
			summary.Errors = append(summary.Errors, err)
			logging.WarnWithContext(logger, "feed fetch failed", "feed_fetch_failed",
				logging.String("feed_url", f.URL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "items of this feed are skipped until the next probe"),
			)
			continue
		}
		summary.Items += len(items)
		for _, item := range items {
			// The same torrent may be announced by several feeds.
			if _, dup := seen[item.URL]; dup {
				continue
			}
			seen[item.URL] = struct{}{}
			if pattern, ok := global.Match(item.Title); ok {
				summary.Filtered++
				logger.Debug("item filtered", logging.String("name", item.Title), logging.String("pattern", pattern))
				continue
			}
			b := matchSeries(series, item.Title)
			if b == nil {
				summary.Unmatched++
				logger.Debug("item matches no tracked series", logging.String("name", item.Title))
				continue
			}
			if pattern, ok := seriesFilters[b.ID].Match(item.Title); ok {
				summary.Filtered++
				logger.Debug("item filtered by series", logging.String("name", item.Title), logging.String("pattern", pattern))
				continue
			}
			matched = append(matched, pending{feedID: f.ID, item: item, bangumi: b})
		}
	}

	latest := p.latest(ctx, matched, logger)
	summary.Superseded = len(matched) - len(latest)

	fresh, err := p.fresh(ctx, latest)
	if err != nil {
		return summary, err
	}
	summary.Known = len(latest) - len(fresh)
	if len(fresh) == 0 {
		return summary, nil
	}

	add := func(ctx context.Context) error {
		p.addAll(ctx, fresh, &summary, logger)
		return nil
	}
	if p.opts.DryRun || p.guard == nil {
		err = add(ctx)
	} else {
		err = p.guard.Do(ctx, add)
	}
	if err != nil {
		return summary, err
	}
	logger.Info("feed probe finished",
		logging.Int("feeds", summary.Feeds),
		logging.Int("items", summary.Items),
		logging.Int("added", len(summary.Added)),
		logging.Int("failed", summary.Failed),
		logging.Bool("dry_run", p.opts.DryRun),
		logging.String(logging.FieldEventType, "feed_probe_finished"),
	)
	return summary, nil
}

// latest applies revision deduplication across every matched item.
func (p *Prober) latest(ctx context.Context, matched []pending, logger *slog.Logger) []pending {
	candidates := make([]revision.Candidate, len(matched))
	byURL := make(map[string]pending, len(matched))
	for i, m := range matched {
		candidates[i] = revision.Candidate{Name: m.item.Title, URL: m.item.URL, Hash: m.item.Hash}
		byURL[m.item.URL] = m
	}
	retained := revision.FilterLatest(candidates, p.extract(ctx, logger), logger)
	out := make([]pending, 0, len(retained))
	for _, candidate := range retained {
		out = append(out, byURL[candidate.URL])
	}
	return out
}

func (p *Prober) extract(ctx context.Context, logger *slog.Logger) revision.Extractor {
	if p.extractor == nil {
		return parser.ParseRelease
	}
	return func(name string) (parser.Release, error) {
		release, err := parser.ParseRelease(name)
		if err == nil {
			return release, nil
		}
		fallback, llmErr := p.extractor.ExtractRelease(ctx, name, p.opts.Language)
		if llmErr != nil {
			logger.Debug("llm extraction failed", logging.String("name", name), logging.Error(llmErr))
			return parser.Release{}, err
		}
		logger.Debug("release read by llm",
			logging.String("name", name),
			logging.String("title", fallback.Title),
			logging.String("episode", fallback.Episode.String()),
		)
		return fallback, nil
	}
}

func (p *Prober) fresh(ctx context.Context, items []pending) ([]pending, error) {
	if len(items) == 0 {
		return nil, nil
	}
	urls := make([]string, len(items))
	for i, m := range items {
		urls[i] = m.item.URL
	}
	newURLs, err := p.store.CheckNew(ctx, urls)
	if err != nil {
		return nil, fmt.Errorf("check new torrents: %w", err)
	}
	keep := make(map[string]struct{}, len(newURLs))
	for _, u := range newURLs {
		keep[u] = struct{}{}
	}
	out := make([]pending, 0, len(newURLs))
	for _, m := range items {
		if _, ok := keep[m.item.URL]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (p *Prober) addAll(ctx context.Context, items []pending, summary *Summary, logger *slog.Logger) {
	records := make([]store.Torrent, 0, len(items))
	for _, m := range items {
		savePath := m.bangumi.SavePath
		if savePath == "" {
			savePath = naming.SavePath(p.opts.SaveRoot, m.bangumi.OfficialTitle, m.bangumi.Season)
		}
		added := Added{
			FeedID:    m.feedID,
			BangumiID: m.bangumi.ID,
			Title:     m.bangumi.OfficialTitle,
			Season:    m.bangumi.Season,
			Name:      m.item.Title,
			URL:       m.item.URL,
			Hash:      m.item.Hash,
			SavePath:  savePath,
			Metadata:  Describe(m.item.Title),
		}
		if p.opts.DryRun {
			summary.Added = append(summary.Added, added)
			continue
		}
		err := p.client.AddTorrent(ctx, m.item.URL, downloader.AddOptions{
			SavePath: savePath,
			Category: p.opts.Category,
		})
		if err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, err)
			logging.WarnWithContext(logger, "torrent not added", "torrent_add_failed",
				logging.String("name", m.item.Title),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the episode is retried on the next probe"),
			)
			if errors.Is(err, context.Canceled) {
				break
			}
			continue
		}
		summary.Added = append(summary.Added, added)
		records = append(records, store.Torrent{
			BangumiID:  m.bangumi.ID,
			FeedID:     m.feedID,
			Name:       m.item.Title,
			URL:        m.item.URL,
			Hash:       m.item.Hash,
			Downloaded: true,
		})
		logger.Info("torrent added",
			logging.String("name", m.item.Title),
			logging.String("official_title", m.bangumi.OfficialTitle),
			logging.String("save_path", savePath),
			logging.String("resolution", added.Metadata.Resolution),
			logging.String("source", added.Metadata.Source),
			logging.String(logging.FieldTorrentHash, m.item.Hash),
			logging.String(logging.FieldEventType, "torrent_added"),
		)
	}
	if err := p.store.AddTorrents(ctx, records); err != nil {
		summary.Errors = append(summary.Errors, err)
		logging.ErrorWithContext(logger, "added torrents not recorded", "torrent_record_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "offsets do not apply to these torrents and they may be added again"),
		)
	}
}

// matchSeries returns the first tracked series whose raw title occurs in
// the item title. Longer raw titles are preferred so "Foo 2nd" wins over
// "Foo".
func matchSeries(series []*store.Bangumi, title string) *store.Bangumi {
	var best *store.Bangumi
	for _, b := range series {
		raw := strings.TrimSpace(b.TitleRaw)
		if raw == "" || !strings.Contains(title, raw) {
			continue
		}
		if best == nil || len(raw) > len(strings.TrimSpace(best.TitleRaw)) {
			best = b
		}
	}
	return best
}
