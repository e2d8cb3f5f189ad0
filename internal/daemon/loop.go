package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/notifications"
	"github.com/KotaHv/Auto-Bangumi/internal/services"
)

// loop runs probes and rename passes on their own tickers. Both run on this
// goroutine so they never compete for the download client session.
func (d *Daemon) loop(ctx context.Context) {
	defer close(d.done)

	var rssTick, renameTick <-chan time.Time
	if d.deps.Prober != nil {
		ticker := time.NewTicker(d.rssInterval)
		defer ticker.Stop()
		rssTick = ticker.C
		d.probe(ctx)
	}
	if d.deps.Renamer != nil {
		ticker := time.NewTicker(d.renameInterval)
		defer ticker.Stop()
		renameTick = ticker.C
		d.rename(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-rssTick:
			d.probe(ctx)
		case <-renameTick:
			d.rename(ctx)
		}
	}
}

func (d *Daemon) probe(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	summary, err := d.deps.Prober.Probe(ctx)
	d.record(&d.lastProbe, err)
	if err != nil {
		if skipped(ctx, err) {
			d.logger.Debug("feed probe skipped", logging.Error(err))
			return
		}
		logging.ErrorWithContext(d.logger, "feed probe failed", "feed_probe_failed",
			logging.Error(err),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldErrorHint, failureHint(err, "check the database and rss_parser.filter")),
		)
		d.notify(ctx, notifications.EventFeedProbeFailed, notifications.Payload{"error": err})
		return
	}
	for _, added := range summary.Added {
		d.notify(ctx, notifications.EventTorrentAdded, notifications.Payload{"name": added.Name})
	}
	if len(summary.Errors) > 0 {
		d.notify(ctx, notifications.EventFeedProbeFailed, notifications.Payload{"error": errors.Join(summary.Errors...)})
	}
}

func (d *Daemon) rename(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	result, err := d.deps.Renamer.Run(ctx)
	d.record(&d.lastRename, err)
	if err != nil {
		if skipped(ctx, err) {
			d.logger.Debug("rename pass skipped", logging.Error(err))
			return
		}
		logging.ErrorWithContext(d.logger, "rename pass failed", "rename_pass_failed",
			logging.Error(err),
			logging.Bool("retryable", services.Retryable(err)),
			logging.String(logging.FieldErrorHint, failureHint(err, "check downloader connectivity and credentials")),
		)
		d.notify(ctx, notifications.EventRenamePassFailed, notifications.Payload{"error": err})
		return
	}
	for _, n := range result.Notifications {
		d.notify(ctx, notifications.EventEpisodeRenamed, notifications.Payload{
			"title":   n.OfficialTitle,
			"season":  n.Season,
			"episode": n.Episode.Pad(2),
		})
	}
}

// skipped reports failures that are not worth alerting on: shutdown and a
// session already held by another pass.
func skipped(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, downloader.ErrSessionActive)
}

// failureHint points at the config file for failures the next tick cannot
// clear on its own.
func failureHint(err error, transient string) string {
	if services.Retryable(err) {
		return transient
	}
	return "fix the configuration and restart; the next run will fail the same way"
}

func (d *Daemon) record(last *time.Time, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	*last = time.Now()
	d.lastErr = err
}

func (d *Daemon) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := d.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "the event was not delivered"),
		)
	}
}
