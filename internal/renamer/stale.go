package renamer

import (
	"context"
	"strings"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
	"github.com/KotaHv/Auto-Bangumi/internal/revision"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

// removeStale deletes torrents holding a superseded revision of an episode
// that is also present at a higher revision. Only single-file torrents take
// part; a collection's identity is not one episode.
func (r *Renamer) removeStale(ctx context.Context) (int, error) {
	logger := logging.WithContext(ctx, r.logger)
	torrents, err := r.listCompleted(ctx)
	if err != nil {
		return 0, err
	}

	var entries []revision.Entry
	for _, torrent := range torrents {
		entry, ok := r.staleEntry(ctx, torrent)
		if ok {
			entries = append(entries, entry)
		}
	}

	deleted := 0
	for _, group := range revision.ResolveStale(entries) {
		if len(group.Drop) == 0 {
			continue
		}
		hashes := make([]string, 0, len(group.Drop))
		dropped := make([]string, 0, len(group.Drop))
		for _, entry := range group.Drop {
			hashes = append(hashes, entry.Hash)
			dropped = append(dropped, entry.Name)
		}
		kept := make([]string, 0, len(group.Keep))
		for _, entry := range group.Keep {
			kept = append(kept, entry.Name)
		}
		logging.WarnWithContext(logger, "multiple versions of an episode detected", "stale_version_detected",
			logging.String("episode", group.Key),
			logging.String("keep", strings.Join(kept, " | ")),
			logging.String("delete", strings.Join(dropped, " | ")),
			logging.String(logging.FieldErrorHint, "disable bangumi_manage.retain_latest_media_version to keep every version"),
			logging.String(logging.FieldImpact, "superseded torrents and their files are deleted"),
		)
		if err := r.client.DeleteTorrents(ctx, hashes, true); err != nil {
			logging.ErrorWithContext(logger, "stale torrent deletion failed", "stale_delete_failed",
				logging.Error(err),
				logging.String("episode", group.Key),
			)
			continue
		}
		deleted += len(hashes)
	}
	return deleted, nil
}

func (r *Renamer) staleEntry(ctx context.Context, torrent downloader.Torrent) (revision.Entry, bool) {
	logger := logging.WithContext(services.WithTorrentHash(ctx, torrent.Hash), r.logger)
	series, ok := naming.RecoverSeries(torrent.SavePath)
	if !ok {
		return revision.Entry{}, false
	}
	files, err := r.client.ListFiles(ctx, torrent.Hash)
	if err != nil {
		logger.Debug("stale check skipped torrent", logging.Error(err))
		return revision.Entry{}, false
	}
	media, _ := downloader.SplitFiles(files)
	if len(media) != 1 {
		return revision.Entry{}, false
	}
	d, err := parser.Parse(media[0], parser.Options{
		Name:       torrent.Name,
		SeasonHint: series.Season,
		Kind:       parser.KindMedia,
	})
	if err != nil {
		return revision.Entry{}, false
	}
	return revision.Entry{
		Hash:     torrent.Hash,
		Name:     torrent.Name,
		Key:      revision.StaleKey(series.Title, series.Season, d.Episode),
		Revision: d.Revision,
	}, true
}
