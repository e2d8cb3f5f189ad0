package renamer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/naming"
	"github.com/KotaHv/Auto-Bangumi/internal/parser"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
	"github.com/KotaHv/Auto-Bangumi/internal/textutil"
)

// job carries per-torrent state through one pass.
type job struct {
	torrent downloader.Torrent
	series  naming.Series
	offset  int
	logger  *slog.Logger
	// group is the release group of the first parsed media file.
	group   string
	deleted bool
}

func (r *Renamer) processTorrent(ctx context.Context, torrent downloader.Torrent, result *Result) {
	ctx = services.WithTorrentHash(ctx, torrent.Hash)
	logger := logging.WithContext(ctx, r.logger).With(logging.String("torrent", torrent.Name))

	series, ok := naming.RecoverSeries(torrent.SavePath)
	if !ok {
		logging.WarnWithContext(logger, "series not recoverable from save path; torrent skipped", "save_path_unrecognized",
			logging.String("save_path", torrent.SavePath),
			logging.String(logging.FieldErrorHint, "store the torrent under \"<title> S<NN>\""),
			logging.String(logging.FieldImpact, "files in this torrent are not renamed"),
		)
		return
	}

	files, err := r.client.ListFiles(ctx, torrent.Hash)
	if err != nil {
		logging.WarnWithContext(logger, "torrent files unavailable; torrent skipped", "torrent_files_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "files in this torrent are not renamed this pass"),
		)
		result.Failed++
		return
	}
	media, subtitles := downloader.SplitFiles(files)

	j := &job{
		torrent: torrent,
		series:  series,
		offset:  r.offset(ctx, logger, torrent.Hash),
		logger:  logger,
	}

	switch len(media) {
	case 0:
		logging.WarnWithContext(logger, "torrent has no media file", "torrent_no_media",
			logging.String(logging.FieldErrorHint, "only .mp4 and .mkv files are renamed"),
			logging.String(logging.FieldImpact, "files are left as is; the torrent is still tagged"),
		)
		r.tag(ctx, j)
		return
	case 1:
		r.renameSingle(ctx, j, media[0], result)
	default:
		r.renameCollection(ctx, j, media, result)
	}
	if j.deleted {
		return
	}

	if len(subtitles) > 0 {
		r.renameSubtitles(ctx, j, subtitles, len(media) == 1, result)
	}

	if len(media) > 1 {
		if err := r.client.SetCategory(ctx, []string{torrent.Hash}, r.opts.CollectionCategory); err != nil {
			logging.WarnWithContext(logger, "collection recategorization failed", "category_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "collection stays in its current category"),
			)
		}
	}
	r.tag(ctx, j)
}

// renameSingle handles a torrent with one media file. Failures are logged and
// the pass moves on.
func (r *Renamer) renameSingle(ctx context.Context, j *job, file string, result *Result) {
	d, err := parser.Parse(file, parser.Options{
		Name:       j.torrent.Name,
		SeasonHint: j.series.Season,
		Kind:       parser.KindMedia,
	})
	if err != nil {
		r.parseFailed(ctx, j, file, err, result)
		return
	}
	j.group = d.Group

	renamed, ok := r.apply(ctx, j, d, r.opts.Method)
	if !ok {
		result.Failed++
		return
	}
	if renamed {
		result.Renamed++
		result.Notifications = append(result.Notifications, Notification{
			OfficialTitle: j.series.Title,
			Season:        d.Season,
			Episode:       d.Episode.Add(j.offset),
		})
	}
}

// renameCollection handles a torrent with several media files. The first
// failed rename stops the collection.
func (r *Renamer) renameCollection(ctx context.Context, j *job, files []string, result *Result) {
	j.logger.Info("renaming collection", logging.Int("media_files", len(files)))
	for _, file := range files {
		d, err := parser.Parse(file, parser.Options{
			SeasonHint: j.series.Season,
			Kind:       parser.KindMedia,
		})
		if err != nil {
			logging.WarnWithContext(j.logger, "collection file not parsed", "parse_failed",
				logging.String("file", file),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file keeps its name"),
			)
			result.Failed++
			continue
		}
		if j.group == "" {
			j.group = d.Group
		}
		renamed, ok := r.apply(ctx, j, d, r.opts.Method)
		if !ok {
			result.Failed++
			j.logger.Warn("collection rename aborted",
				logging.String("file", file),
				logging.String(logging.FieldEventType, "collection_aborted"),
				logging.String(logging.FieldErrorHint, "check the download client log for the failed rename"),
				logging.String(logging.FieldImpact, "remaining files in the collection are not renamed"),
			)
			if r.opts.RemoveBad {
				r.delete(ctx, j, "collection rename failed", result)
			}
			return
		}
		if renamed {
			result.Renamed++
		}
	}
}

// renameSubtitles never deletes; failures are logged only. The torrent name
// is only a useful hint when the torrent holds a single episode.
func (r *Renamer) renameSubtitles(ctx context.Context, j *job, files []string, single bool, result *Result) {
	policy := r.opts.Method.Subtitle()
	for _, file := range files {
		opts := parser.Options{SeasonHint: j.series.Season, Kind: parser.KindSubtitle}
		if single {
			opts.Name = j.torrent.Name
		}
		d, err := parser.Parse(file, opts)
		if err != nil {
			logging.WarnWithContext(j.logger, "subtitle not parsed", "parse_failed",
				logging.String("file", file),
				logging.Error(err),
				logging.String(logging.FieldImpact, "subtitle keeps its name"),
			)
			result.Failed++
			continue
		}
		renamed, ok := r.apply(ctx, j, d, policy)
		switch {
		case !ok:
			result.Failed++
		case renamed:
			result.Renamed++
		}
	}
}

// apply composes the target name for d and renames the file when it
// differs. It reports whether a rename happened and whether the file ended
// up in an acceptable state.
func (r *Renamer) apply(ctx context.Context, j *job, d parser.Descriptor, policy naming.Policy) (renamed, ok bool) {
	target, err := r.composer.Compose(d, j.series.Title, policy, j.offset)
	if err != nil {
		attrs := []logging.Attr{
			logging.String("file", d.Path),
			logging.Error(err),
		}
		if errors.Is(err, naming.ErrUndefinedLanguage) {
			attrs = append(attrs,
				logging.String(logging.FieldErrorHint, "add tc/sc or chs/cht to the subtitle file name"),
				logging.String(logging.FieldImpact, "subtitle keeps its name"),
			)
			logging.WarnWithContext(j.logger, "subtitle language undefined", "subtitle_language_undefined", attrs...)
		} else {
			attrs = append(attrs, logging.String(logging.FieldErrorHint, "set bangumi_manage.rename_method to none, pn or advance"))
			logging.ErrorWithContext(j.logger, "file name not composed", "compose_failed", attrs...)
		}
		return false, false
	}
	if target == d.Path {
		attrs := append(logging.DecisionAttrs("rename", "unchanged", "target equals current name"),
			logging.String("file", d.Path),
		)
		j.logger.Debug("file already named", logging.Args(attrs...)...)
		return false, true
	}
	if err := r.client.RenameFile(ctx, j.torrent.Hash, d.Path, target); err != nil {
		logging.WarnWithContext(j.logger, "file rename failed", "rename_failed",
			logging.String("file", d.Path),
			logging.String("target", target),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the download client log and the file's state"),
			logging.String(logging.FieldImpact, "file keeps its name until the next pass"),
		)
		return false, false
	}
	attrs := append(logging.DecisionAttrs("rename", "renamed", string(policy)),
		logging.String("file", d.Path),
		logging.String("target", target),
		logging.String(logging.FieldEventType, "rename_applied"),
	)
	j.logger.Info("file renamed", logging.Args(attrs...)...)
	return true, true
}

func (r *Renamer) parseFailed(ctx context.Context, j *job, file string, err error, result *Result) {
	result.Failed++
	logging.WarnWithContext(j.logger, "media file not parsed", "parse_failed",
		logging.String("file", file),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "rename the file by hand or enable bangumi_manage.remove_bad_torrent"),
		logging.String(logging.FieldImpact, "file keeps its name"),
	)
	if r.opts.RemoveBad {
		r.delete(ctx, j, "media file not parsed", result)
	}
}

func (r *Renamer) delete(ctx context.Context, j *job, reason string, result *Result) {
	if err := r.client.DeleteTorrents(ctx, []string{j.torrent.Hash}, true); err != nil {
		logging.ErrorWithContext(j.logger, "bad torrent deletion failed", "delete_failed", logging.Error(err))
		return
	}
	j.deleted = true
	result.Deleted++
	j.logger.Info("bad torrent deleted", logging.Args(logging.DecisionAttrs("remove_bad_torrent", "deleted", reason)...)...)
}

func (r *Renamer) tag(ctx context.Context, j *job) {
	tags := []string{textutil.SanitizeTag(j.series.Title)}
	if r.opts.GroupTag && j.group != "" {
		tags = append(tags, textutil.SanitizeTag(j.group))
	}
	if err := r.client.AddTags(ctx, []string{j.torrent.Hash}, tags...); err != nil {
		logging.WarnWithContext(j.logger, "torrent tagging failed", "tag_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "torrent is not tagged with its series"),
		)
	}
}
