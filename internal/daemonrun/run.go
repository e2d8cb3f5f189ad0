package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/daemon"
	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/feed"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/notifications"
	"github.com/KotaHv/Auto-Bangumi/internal/preflight"
	"github.com/KotaHv/Auto-Bangumi/internal/renamer"
	"github.com/KotaHv/Auto-Bangumi/internal/services/llm"
	"github.com/KotaHv/Auto-Bangumi/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the autobangumi daemon and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("autobangumi-%s.log", runID))

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	if cfg.Logging.DebugEnable {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		Development: opts.Development,
		FilePath:    logPath,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger = logging.WithSessionID(logger, uuid.NewString())

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update %s link: %v\n", logging.LogFileName, err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "autobangumi-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.DataDir, "autobangumi.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}
	defer st.Close()

	client := downloader.NewQBittorrent(cfg, logger)
	guard := downloader.NewGuard(client, cfg.SessionLockPath(), logger)
	fetcher := feed.NewFetcher(cfg)

	deps, err := buildDependencies(cfg, st, client, guard, fetcher, logger)
	if err != nil {
		return err
	}

	logPreflight(signalCtx, logger, cfg, st, client, fetcher)

	d, err := daemon.New(cfg, deps, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	<-signalCtx.Done()
	logger.Info("autobangumi daemon shutting down")
	return nil
}

func buildDependencies(cfg *config.Config, st *store.Store, client *downloader.QBittorrent, guard *downloader.Guard, fetcher *feed.Fetcher, logger *slog.Logger) (daemon.Dependencies, error) {
	deps := daemon.Dependencies{
		Categories: client,
		Guard:      guard,
		Notifier:   notifications.NewService(cfg),
	}
	if cfg.BangumiManage.Enable {
		opts, err := renamer.OptionsFromConfig(cfg)
		if err != nil {
			return deps, err
		}
		deps.Renamer = renamer.New(client, guard, st, opts, logger)
	}
	if cfg.RSSParser.Enable {
		var extractor feed.ReleaseExtractor
		if cfg.ExperimentalLLM.Enable {
			extractor = llm.NewFromConfig(cfg)
		}
		deps.Prober = feed.NewProber(st, client, guard, fetcher, extractor, feed.OptionsFromConfig(cfg), logger)
	}
	return deps, nil
}

func logPreflight(ctx context.Context, logger *slog.Logger, cfg *config.Config, st *store.Store, client downloader.Client, fetcher *feed.Fetcher) {
	targets := preflight.Targets{Downloader: client, Fetcher: fetcher}
	if feeds, err := st.ListFeeds(ctx, true); err == nil {
		for _, f := range feeds {
			targets.FeedURLs = append(targets.FeedURLs, f.URL)
		}
	}
	for _, result := range preflight.RunAll(ctx, cfg, targets) {
		if result.Passed {
			logger.Info("preflight passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run autobangumi preflight for details"),
		)
	}
}

// ensureCurrentLogPointer keeps <log_dir>/autobangumi.log pointing at the
// current run's log file.
func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, logging.LogFileName)
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}
