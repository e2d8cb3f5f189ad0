package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDownloader()
	c.normalizeRSSParser()
	c.normalizeBangumiManage()
	c.normalizeProxy()
	c.normalizeLLM()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Type = strings.ToLower(strings.TrimSpace(c.Downloader.Type))
	if c.Downloader.Type == "" {
		c.Downloader.Type = defaultDownloaderType
	}
	c.Downloader.Host = envOverride(c.Downloader.Host, "AB_DOWNLOADER_HOST")
	c.Downloader.Username = envOverride(c.Downloader.Username, "AB_DOWNLOADER_USERNAME")
	c.Downloader.Password = envOverride(c.Downloader.Password, "AB_DOWNLOADER_PASSWORD")
	// The save root lives on the download client's filesystem, so it is not expanded locally.
	c.Downloader.Path = strings.TrimRight(strings.TrimSpace(c.Downloader.Path), `/\`)
	if c.Downloader.Path == "" {
		c.Downloader.Path = defaultDownloaderPath
	}
	c.Downloader.Category = strings.TrimSpace(c.Downloader.Category)
	if c.Downloader.Category == "" {
		c.Downloader.Category = defaultDownloaderCategory
	}
	c.Downloader.CollectionCategory = strings.TrimSpace(c.Downloader.CollectionCategory)
	if c.Downloader.CollectionCategory == "" {
		c.Downloader.CollectionCategory = defaultCollectionCategory
	}
	if c.Downloader.TimeoutSeconds <= 0 {
		c.Downloader.TimeoutSeconds = defaultDownloaderTimeout
	}
}

func (c *Config) normalizeRSSParser() {
	filters := make([]string, 0, len(c.RSSParser.Filter))
	seen := make(map[string]struct{}, len(c.RSSParser.Filter))
	for _, filter := range c.RSSParser.Filter {
		filter = strings.TrimSpace(filter)
		if filter == "" {
			continue
		}
		if _, exists := seen[filter]; exists {
			continue
		}
		seen[filter] = struct{}{}
		filters = append(filters, filter)
	}
	c.RSSParser.Filter = filters
	c.RSSParser.Language = strings.ToLower(strings.TrimSpace(c.RSSParser.Language))
	if c.RSSParser.Language == "" {
		c.RSSParser.Language = defaultRSSLanguage
	}
}

func (c *Config) normalizeBangumiManage() {
	c.BangumiManage.RenameMethod = strings.ToLower(strings.TrimSpace(c.BangumiManage.RenameMethod))
	if c.BangumiManage.RenameMethod == "" {
		c.BangumiManage.RenameMethod = defaultRenameMethod
	}
}

func (c *Config) normalizeProxy() {
	c.Proxy.Type = strings.ToLower(strings.TrimSpace(c.Proxy.Type))
	if c.Proxy.Type == "" {
		c.Proxy.Type = defaultProxyType
	}
	if c.Proxy.Type == "socks5h" {
		c.Proxy.Type = "socks5"
	}
	c.Proxy.Host = strings.TrimSpace(c.Proxy.Host)
}

func (c *Config) normalizeLLM() {
	c.ExperimentalLLM.APIKey = envOverride(c.ExperimentalLLM.APIKey, "OPENAI_API_KEY")
	c.ExperimentalLLM.BaseURL = strings.TrimSpace(c.ExperimentalLLM.BaseURL)
	if c.ExperimentalLLM.BaseURL == "" {
		c.ExperimentalLLM.BaseURL = defaultLLMBaseURL
	}
	c.ExperimentalLLM.Model = strings.TrimSpace(c.ExperimentalLLM.Model)
	if c.ExperimentalLLM.Model == "" {
		c.ExperimentalLLM.Model = defaultLLMModel
	}
	if c.ExperimentalLLM.TimeoutSeconds <= 0 {
		c.ExperimentalLLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.DebugEnable {
		c.Logging.Level = "debug"
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

// envOverride prefers a non-empty environment variable over the file value.
func envOverride(value, key string) string {
	if env, ok := os.LookupEnv(key); ok && strings.TrimSpace(env) != "" {
		return strings.TrimSpace(env)
	}
	return strings.TrimSpace(value)
}
