package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
	"github.com/KotaHv/Auto-Bangumi/internal/downloader"
	"github.com/KotaHv/Auto-Bangumi/internal/logging"
	"github.com/KotaHv/Auto-Bangumi/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	store *store.Store
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// resolvedLogLevel prefers --log-level, then logging.debug_enable, then
// logging.level.
func (c *commandContext) resolvedLogLevel(cfg *config.Config) string {
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		return strings.TrimSpace(*c.logLevelFlag)
	}
	if cfg != nil && cfg.Logging.DebugEnable {
		return "debug"
	}
	if cfg != nil {
		return cfg.Logging.Level
	}
	return "info"
}

// commandLogger writes console logs to the command's stderr so stdout stays
// reserved for command output.
func (c *commandContext) commandLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	logger, err := logging.New(logging.Options{
		Level:   c.resolvedLogLevel(cfg),
		Format:  "console",
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: unable to initialize logger: %v\n", err)
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) openStore() (*store.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	c.store = st
	return st, nil
}

func (c *commandContext) downloader(logger *slog.Logger) (*downloader.QBittorrent, *downloader.Guard, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	client := downloader.NewQBittorrent(cfg, logger)
	return client, downloader.NewGuard(client, cfg.SessionLockPath(), logger), nil
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", value)
	}
	return id, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
