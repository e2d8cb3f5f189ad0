package downloader

import (
	"context"
	"log/slog"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

var _ Client = (*QBittorrent)(nil)

// QBittorrent implements Client over the qBittorrent WebAPI.
type QBittorrent struct {
	client *qbt.Client
	host   string
	logger *slog.Logger
}

// NewQBittorrent builds a client from the downloader section of cfg.
func NewQBittorrent(cfg *config.Config, logger *slog.Logger) *QBittorrent {
	host := cfg.DownloaderURL()
	return &QBittorrent{
		client: qbt.NewClient(qbt.Config{
			Host:     host,
			Username: cfg.Downloader.Username,
			Password: cfg.Downloader.Password,
			Timeout:  cfg.Downloader.TimeoutSeconds,
		}),
		host:   host,
		logger: logging.NewComponentLogger(logger, "downloader"),
	}
}

func (q *QBittorrent) Login(ctx context.Context) error {
	if err := q.client.LoginCtx(ctx); err != nil {
		return q.wrap("login", "authenticate with "+q.host, err)
	}
	q.logger.Debug("download client authenticated", logging.String("host", q.host))
	return nil
}

// Logout is a no-op: the WebAPI session cookie expires on its own and a new
// login replaces it.
func (q *QBittorrent) Logout(context.Context) error {
	return nil
}

func (q *QBittorrent) ListTorrents(ctx context.Context, opts ListOptions) ([]Torrent, error) {
	filter := qbt.TorrentFilterOptions{
		Category: opts.Category,
		Tag:      opts.Tag,
		Hashes:   opts.Hashes,
	}
	if opts.Status != "" {
		filter.Filter = qbt.TorrentFilter(opts.Status)
	}
	torrents, err := q.client.GetTorrentsCtx(ctx, filter)
	if err != nil {
		return nil, q.wrap("list", "list torrents", err)
	}
	out := make([]Torrent, 0, len(torrents))
	for _, t := range torrents {
		out = append(out, Torrent{
			Hash:     t.Hash,
			Name:     t.Name,
			SavePath: t.SavePath,
			Category: t.Category,
			Tags:     t.Tags,
			State:    string(t.State),
		})
	}
	return out, nil
}

func (q *QBittorrent) ListFiles(ctx context.Context, hash string) ([]string, error) {
	files, err := q.client.GetFilesInformationCtx(ctx, hash)
	if err != nil {
		return nil, q.wrap("files", "list files of "+hash, err)
	}
	if files == nil {
		return nil, nil
	}
	names := make([]string, 0, len(*files))
	for _, f := range *files {
		names = append(names, f.Name)
	}
	return names, nil
}

func (q *QBittorrent) RenameFile(ctx context.Context, hash, oldPath, newPath string) error {
	if err := q.client.RenameFileCtx(ctx, hash, oldPath, newPath); err != nil {
		return q.wrap("rename", oldPath, err)
	}
	return nil
}

func (q *QBittorrent) DeleteTorrents(ctx context.Context, hashes []string, deleteFiles bool) error {
	if len(hashes) == 0 {
		return nil
	}
	if err := q.client.DeleteTorrentsCtx(ctx, hashes, deleteFiles); err != nil {
		return q.wrap("delete", strings.Join(hashes, ","), err)
	}
	return nil
}

func (q *QBittorrent) SetCategory(ctx context.Context, hashes []string, category string) error {
	if err := q.client.SetCategoryCtx(ctx, hashes, category); err != nil {
		return q.wrap("category", category, err)
	}
	return nil
}

func (q *QBittorrent) AddTags(ctx context.Context, hashes []string, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := q.client.AddTagsCtx(ctx, hashes, strings.Join(tags, ",")); err != nil {
		return q.wrap("tag", strings.Join(tags, ","), err)
	}
	return nil
}

func (q *QBittorrent) RemoveTags(ctx context.Context, hashes []string, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := q.client.RemoveTagsCtx(ctx, hashes, strings.Join(tags, ",")); err != nil {
		return q.wrap("untag", strings.Join(tags, ","), err)
	}
	return nil
}

func (q *QBittorrent) AddTorrent(ctx context.Context, url string, opts AddOptions) error {
	options := map[string]string{}
	if opts.SavePath != "" {
		options["savepath"] = opts.SavePath
	}
	if opts.Category != "" {
		options["category"] = opts.Category
	}
	if len(opts.Tags) > 0 {
		options["tags"] = strings.Join(opts.Tags, ",")
	}
	if err := q.client.AddTorrentFromUrlCtx(ctx, url, options); err != nil {
		return q.wrap("add", url, err)
	}
	return nil
}

func (q *QBittorrent) EnsureCategory(ctx context.Context, name, savePath string) error {
	categories, err := q.client.GetCategoriesCtx(ctx)
	if err != nil {
		return q.wrap("category", "list categories", err)
	}
	if _, ok := categories[name]; ok {
		return nil
	}
	if err := q.client.CreateCategoryCtx(ctx, name, savePath); err != nil {
		return q.wrap("category", "create "+name, err)
	}
	q.logger.Info("download client category created", logging.String("category", name))
	return nil
}

func (q *QBittorrent) Version(ctx context.Context) (string, error) {
	version, err := q.client.GetAppVersionCtx(ctx)
	if err != nil {
		return "", q.wrap("version", "query version", err)
	}
	return version, nil
}

func (q *QBittorrent) wrap(operation, message string, err error) error {
	return services.Wrap(services.ErrExternalTool, "qbittorrent", operation, message, err)
}
