package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/KotaHv/Auto-Bangumi/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Downloader.Path = "/downloads/Bangumi"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithRenameMethod sets bangumi_manage.rename_method.
func WithRenameMethod(method string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.BangumiManage.RenameMethod = method
	}
}

// WithRemoveBadTorrent toggles deletion of torrents that cannot be parsed.
func WithRemoveBadTorrent(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.BangumiManage.RemoveBadTorrent = enabled
	}
}

// WithRetainLatest toggles retain_latest_media_version.
func WithRetainLatest(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.BangumiManage.RetainLatestMediaVersion = enabled
	}
}

// WithDownloaderHost points the downloader at a test server.
func WithDownloaderHost(host string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Downloader.Host = host
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
