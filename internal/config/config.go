package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Program contains daemon scheduling intervals in seconds.
type Program struct {
	RSSInterval    int `toml:"rss_interval"`
	RenameInterval int `toml:"rename_interval"`
}

// Downloader contains download client connection settings.
type Downloader struct {
	Type               string `toml:"type"`
	Host               string `toml:"host"`
	Username           string `toml:"username"`
	Password           string `toml:"password"`
	Path               string `toml:"path"`
	SSL                bool   `toml:"ssl"`
	Category           string `toml:"category"`
	CollectionCategory string `toml:"collection_category"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// RSSParser contains feed probing settings.
type RSSParser struct {
	Enable bool `toml:"enable"`
	// Filter holds regular expressions; matching item titles are dropped.
	Filter []string `toml:"filter"`
	// Language selects which localized title the LLM extractor reports (zh, en, jp).
	Language string `toml:"language"`
}

// BangumiManage contains rename pass settings.
type BangumiManage struct {
	Enable                   bool   `toml:"enable"`
	RenameMethod             string `toml:"rename_method"`
	RemoveBadTorrent         bool   `toml:"remove_bad_torrent"`
	RetainLatestMediaVersion bool   `toml:"retain_latest_media_version"`
	GroupTag                 bool   `toml:"group_tag"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	DebugEnable   bool   `toml:"debug_enable"`
	RetentionDays int    `toml:"retention_days"`
}

// Proxy is applied to feed and LLM HTTP traffic.
type Proxy struct {
	Enable   bool   `toml:"enable"`
	Type     string `toml:"type"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	Enable         bool   `toml:"enable"`
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Rename         bool   `toml:"rename"`
	Errors         bool   `toml:"errors"`
}

// ExperimentalLLM configures the LLM fallback for release name extraction.
type ExperimentalLLM struct {
	Enable         bool   `toml:"enable"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Config encapsulates all configuration values for Auto-Bangumi.
//
// Configuration sections by subsystem:
//   - Paths: data (database, locks) and log directories
//   - Program: feed and rename intervals
//   - Downloader: qBittorrent connection, save root, categories
//   - RSSParser: feed probing and title filters
//   - BangumiManage: rename policy and cleanup flags
//   - Logging: log format, level, and retention
//   - Proxy: outbound HTTP proxy for feeds and the LLM
//   - Notifications: ntfy push notification settings
//   - ExperimentalLLM: LLM release name extraction
type Config struct {
	Paths           Paths           `toml:"paths"`
	Program         Program         `toml:"program"`
	Downloader      Downloader      `toml:"downloader"`
	RSSParser       RSSParser       `toml:"rss_parser"`
	BangumiManage   BangumiManage   `toml:"bangumi_manage"`
	Logging         Logging         `toml:"logging"`
	Proxy           Proxy           `toml:"proxy"`
	Notifications   Notifications   `toml:"notifications"`
	ExperimentalLLM ExperimentalLLM `toml:"experimental_llm"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autobangumi.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "autobangumi.db")
}

// DaemonLockPath returns the single-instance lock file used by the daemon.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "autobangumi.lock")
}

// SessionLockPath returns the lock file guarding download client rename passes.
func (c *Config) SessionLockPath() string {
	return filepath.Join(c.Paths.DataDir, "downloader.lock")
}

// DownloaderURL returns the download client base URL. Hosts without a scheme
// get http or https depending on downloader.ssl.
func (c *Config) DownloaderURL() string {
	host := strings.TrimRight(strings.TrimSpace(c.Downloader.Host), "/")
	if host == "" || strings.Contains(host, "://") {
		return host
	}
	if c.Downloader.SSL {
		return "https://" + host
	}
	return "http://" + host
}

// ProxyURL returns the configured proxy, or nil when proxying is disabled.
func (c *Config) ProxyURL() *url.URL {
	if !c.Proxy.Enable {
		return nil
	}
	u := &url.URL{
		Scheme: c.Proxy.Type,
		Host:   net.JoinHostPort(c.Proxy.Host, strconv.Itoa(c.Proxy.Port)),
	}
	if c.Proxy.Username != "" {
		u.User = url.UserPassword(c.Proxy.Username, c.Proxy.Password)
	}
	return u
}

// HTTPClient returns a client for outbound feed and LLM traffic, routed
// through the proxy when one is enabled.
func (c *Config) HTTPClient(timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if proxy := c.ProxyURL(); proxy != nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = http.ProxyURL(proxy)
		client.Transport = transport
	}
	return client
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// ErrConfigExists is returned by CreateSample when path is taken and
// overwrite is false.
var ErrConfigExists = errors.New("config file already exists")

// CreateSample writes the commented sample configuration to path.
func CreateSample(path string, overwrite bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}
	file, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w at %s", ErrConfigExists, path)
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	return file.Close()
}

// LLMConfig contains the LLM connection settings.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// GetLLM returns the LLM connection settings.
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.ExperimentalLLM.APIKey),
		BaseURL:        strings.TrimSpace(c.ExperimentalLLM.BaseURL),
		Model:          strings.TrimSpace(c.ExperimentalLLM.Model),
		TimeoutSeconds: c.ExperimentalLLM.TimeoutSeconds,
	}
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
