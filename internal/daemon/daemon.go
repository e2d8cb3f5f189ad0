package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/feed"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/notifications"
	"github.com/KotaHv/Auto-Bangumi/internal/renamer"
)

// Renamer runs one rename pass.
type Renamer interface {
	Run(ctx context.Context) (renamer.Result, error)
}

// Prober runs one feed probe.
type Prober interface {
	Probe(ctx context.Context) (feed.Summary, error)
}

// CategoryEnsurer creates download client categories.
type CategoryEnsurer interface {
	EnsureCategory(ctx context.Context, name, savePath string) error
}

// Dependencies are the collaborators the scheduling loop drives. Renamer and
// Prober may be nil when the corresponding feature is disabled.
type Dependencies struct {
	Renamer    Renamer
	Prober     Prober
	Categories CategoryEnsurer
	Guard      *downloader.Guard
	Notifier   notifications.Service
}

// Daemon schedules feed probes and rename passes and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	deps   Dependencies
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock

	rssInterval    time.Duration
	renameInterval time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	mu         sync.Mutex
	lastRename time.Time
	lastProbe  time.Time
	lastErr    error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	LastRename   time.Time
	LastProbe    time.Time
	LastError    error
}

// New constructs a daemon.
func New(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if deps.Renamer == nil && deps.Prober == nil {
		return nil, errors.New("daemon requires a renamer or a feed prober")
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(cfg)
	}
	lockPath := cfg.DaemonLockPath()
	return &Daemon{
		cfg:            cfg,
		deps:           deps,
		logger:         logging.NewComponentLogger(logger, "daemon"),
		lockPath:       lockPath,
		lock:           flock.New(lockPath),
		rssInterval:    seconds(cfg.Program.RSSInterval, 900),
		renameInterval: seconds(cfg.Program.RenameInterval, 60),
	}, nil
}

func seconds(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

// SetIntervals overrides the configured schedule.
func (d *Daemon) SetIntervals(rss, rename time.Duration) {
	if rss > 0 {
		d.rssInterval = rss
	}
	if rename > 0 {
		d.renameInterval = rename
	}
}

// Start acquires the daemon lock and launches the scheduling loop.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another autobangumi daemon instance is already running")
	}

	d.ensureCategory(ctx)

	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)
	go d.loop(loopCtx)

	d.logger.Info("autobangumi daemon started",
		logging.String("lock", d.lockPath),
		logging.Duration("rss_interval", d.rssInterval),
		logging.Duration("rename_interval", d.renameInterval),
		logging.Bool("rss_enabled", d.deps.Prober != nil),
		logging.Bool("rename_enabled", d.deps.Renamer != nil),
	)
	return nil
}

// Stop stops the scheduling loop and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	<-d.done
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_unlock_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "a stale lock file may remain"),
		)
	}
	d.running.Store(false)
	d.logger.Info("autobangumi daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		LockFilePath: d.lockPath,
		LastRename:   d.lastRename,
		LastProbe:    d.lastProbe,
		LastError:    d.lastErr,
	}
}

// TestNotification sends a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.deps.Notifier.Publish(ctx, notifications.EventTest, nil)
}

// ensureCategory creates the collection category so collection renames can
// move torrents into it. Failures are logged; the loop still starts.
func (d *Daemon) ensureCategory(ctx context.Context) {
	if d.deps.Categories == nil || d.cfg.Downloader.CollectionCategory == "" {
		return
	}
	ensure := func(ctx context.Context) error {
		return d.deps.Categories.EnsureCategory(ctx, d.cfg.Downloader.CollectionCategory, "")
	}
	var err error
	if d.deps.Guard != nil {
		err = d.deps.Guard.Do(ctx, ensure)
	} else {
		err = ensure(ctx)
	}
	if err != nil {
		logging.WarnWithContext(d.logger, "collection category not ensured", "category_ensure_failed",
			logging.String("category", d.cfg.Downloader.CollectionCategory),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check downloader connectivity and credentials"),
			logging.String(logging.FieldImpact, "collection torrents may fail to change category"),
		)
	}
}
