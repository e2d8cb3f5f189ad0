package renamer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

// Client is the part of the download client a pass uses.
type Client interface {
	ListTorrents(ctx context.Context, opts downloader.ListOptions) ([]downloader.Torrent, error)
	ListFiles(ctx context.Context, hash string) ([]string, error)
	RenameFile(ctx context.Context, hash, oldPath, newPath string) error
	DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error
	SetCategory(ctx context.Context, hashes []string, category string) error
	AddTags(ctx context.Context, hashes []string, tags ...string) error
	RemoveTags(ctx context.Context, hashes []string, tags ...string) error
}

// OffsetLookup resolves a torrent to its series' episode offset.
type OffsetLookup interface {
	OffsetByTorrentHash(ctx context.Context, hash string) (int, error)
}

// Options are the rename settings of one renamer.
type Options struct {
	Method             naming.Policy
	RetainLatest       bool
	RemoveBad          bool
	GroupTag           bool
	Category           string
	CollectionCategory string
}

// OptionsFromConfig reads rename settings from cfg.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	method, err := naming.ParsePolicy(cfg.BangumiManage.RenameMethod)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "renamer", "options", "bangumi_manage.rename_method", err)
	}
	return Options{
		Method:             method,
		RetainLatest:       cfg.BangumiManage.RetainLatestMediaVersion,
		RemoveBad:          cfg.BangumiManage.RemoveBadTorrent,
		GroupTag:           cfg.BangumiManage.GroupTag,
		Category:           cfg.Downloader.Category,
		CollectionCategory: cfg.Downloader.CollectionCategory,
	}, nil
}

// Notification announces a renamed episode.
type Notification struct {
	OfficialTitle string
	Season        int
	Episode       parser.Episode
}

// Result summarizes one pass.
type Result struct {
	PassID        string
	Torrents      int
	Renamed       int
	Failed        int
	Deleted       int
	Notifications []Notification
	Duration      time.Duration
}

// Renamer drives rename passes.
type Renamer struct {
	client   Client
	guard    *downloader.Guard
	offsets  OffsetLookup
	composer *naming.Composer
	opts     Options
	logger   *slog.Logger
}

// New returns a renamer. guard may be nil when the caller already holds a
// client session; offsets may be nil when no series carries an offset.
func New(client Client, guard *downloader.Guard, offsets OffsetLookup, opts Options, logger *slog.Logger) *Renamer {
	logger = logging.NewComponentLogger(logger, "renamer")
	if opts.Category == "" {
		opts.Category = "Bangumi"
	}
	if opts.CollectionCategory == "" {
		opts.CollectionCategory = "BangumiCollection"
	}
	return &Renamer{
		client:   client,
		guard:    guard,
		offsets:  offsets,
		composer: naming.NewComposer(opts.RetainLatest, logger),
		opts:     opts,
		logger:   logger,
	}
}

// Run executes one pass inside the client session. It returns an error only
// when the session cannot be held or torrents cannot be listed; per-file
// failures are logged and counted in the result.
func (r *Renamer) Run(ctx context.Context) (Result, error) {
	result := Result{PassID: uuid.NewString()}
	ctx = services.WithRequestID(ctx, result.PassID)
	start := time.Now()

	pass := func(ctx context.Context) error {
		return r.pass(ctx, &result)
	}
	var err error
	if r.guard != nil {
		err = r.guard.Do(ctx, pass)
	} else {
		err = pass(ctx)
	}
	result.Duration = time.Since(start)

	logger := logging.WithContext(ctx, r.logger)
	if err != nil {
		return result, err
	}
	level := slog.LevelDebug
	if result.Renamed > 0 || result.Deleted > 0 || result.Failed > 0 {
		level = slog.LevelInfo
	}
	logger.Log(ctx, level, "rename pass finished",
		logging.String(logging.FieldEventType, "rename_pass_finished"),
		logging.Int("torrents", result.Torrents),
		logging.Int("renamed", result.Renamed),
		logging.Int("failed", result.Failed),
		logging.Int("deleted", result.Deleted),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

func (r *Renamer) pass(ctx context.Context, result *Result) error {
	if r.opts.RetainLatest {
		deleted, err := r.removeStale(ctx)
		if err != nil {
			return err
		}
		result.Deleted += deleted
	}

	torrents, err := r.listCompleted(ctx)
	if err != nil {
		return err
	}
	result.Torrents = len(torrents)
	for _, torrent := range torrents {
		r.processTorrent(ctx, torrent, result)
	}
	return nil
}

func (r *Renamer) listCompleted(ctx context.Context) ([]downloader.Torrent, error) {
	torrents, err := r.client.ListTorrents(ctx, downloader.ListOptions{
		Category: r.opts.Category,
		Status:   downloader.StatusCompleted,
	})
	if err != nil {
		return nil, fmt.Errorf("list torrents: %w", err)
	}
	return torrents, nil
}

func (r *Renamer) offset(ctx context.Context, logger *slog.Logger, hash string) int {
	if r.offsets == nil {
		return 0
	}
	offset, err := r.offsets.OffsetByTorrentHash(ctx, hash)
	if err != nil {
		logging.WarnWithContext(logger, "episode offset lookup failed; using 0", "offset_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the database at paths.data_dir"),
			logging.String(logging.FieldImpact, "episode numbers are not shifted"),
		)
		return 0
	}
	return offset
}
