package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var renameMethods = map[string]struct{}{
	"none":    {},
	"pn":      {},
	"advance": {},
	"normal":  {},
}

var proxyTypes = map[string]struct{}{
	"http":   {},
	"https":  {},
	"socks5": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateProgram(); err != nil {
		return err
	}
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateRSSParser(); err != nil {
		return err
	}
	if err := c.validateBangumiManage(); err != nil {
		return err
	}
	if err := c.validateProxy(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateProgram() error {
	return ensurePositiveMap(map[string]int{
		"program.rss_interval":          c.Program.RSSInterval,
		"program.rename_interval":       c.Program.RenameInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateDownloader() error {
	if c.Downloader.Type != "qbittorrent" {
		return fmt.Errorf("downloader.type %q is not supported (use qbittorrent)", c.Downloader.Type)
	}
	if strings.TrimSpace(c.Downloader.Host) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("downloader.host is required. Set AB_DOWNLOADER_HOST or edit %s (create with 'autobangumi config init')", defaultPath)
	}
	if c.Downloader.Category == c.Downloader.CollectionCategory {
		return errors.New("downloader.collection_category must differ from downloader.category")
	}
	return nil
}

func (c *Config) validateRSSParser() error {
	for _, filter := range c.RSSParser.Filter {
		if _, err := regexp.Compile(filter); err != nil {
			return fmt.Errorf("rss_parser.filter %q: %w", filter, err)
		}
	}
	switch c.RSSParser.Language {
	case "zh", "en", "jp":
		return nil
	default:
		return fmt.Errorf("rss_parser.language %q must be one of zh, en, jp", c.RSSParser.Language)
	}
}

func (c *Config) validateBangumiManage() error {
	if _, ok := renameMethods[c.BangumiManage.RenameMethod]; !ok {
		return fmt.Errorf("bangumi_manage.rename_method %q must be one of none, pn, advance", c.BangumiManage.RenameMethod)
	}
	return nil
}

func (c *Config) validateProxy() error {
	if !c.Proxy.Enable {
		return nil
	}
	if _, ok := proxyTypes[c.Proxy.Type]; !ok {
		return fmt.Errorf("proxy.type %q must be one of http, https, socks5", c.Proxy.Type)
	}
	if c.Proxy.Host == "" {
		return errors.New("proxy.host must be set when proxy.enable is true")
	}
	if c.Proxy.Port <= 0 || c.Proxy.Port > 65535 {
		return errors.New("proxy.port must be between 1 and 65535 when proxy.enable is true")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.ExperimentalLLM.Enable && strings.TrimSpace(c.ExperimentalLLM.APIKey) == "" {
		return errors.New("experimental_llm.api_key must be set when experimental_llm.enable is true (or set OPENAI_API_KEY)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
