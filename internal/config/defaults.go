package config

const (
	defaultConfigPath           = "~/.config/autobangumi/config.toml"
	defaultDataDir              = "~/.local/share/autobangumi"
	defaultLogDir               = "~/.local/share/autobangumi/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultRSSInterval          = 900
	defaultRenameInterval       = 60
	defaultDownloaderType       = "qbittorrent"
	defaultDownloaderHost       = "127.0.0.1:8080"
	defaultDownloaderUsername   = "admin"
	defaultDownloaderPassword   = "adminadmin"
	defaultDownloaderPath       = "/downloads/Bangumi"
	defaultDownloaderCategory   = "Bangumi"
	defaultCollectionCategory   = "BangumiCollection"
	defaultDownloaderTimeout    = 30
	defaultRSSLanguage          = "zh"
	defaultRenameMethod         = "pn"
	defaultProxyType            = "http"
	defaultNotifyRequestTimeout = 10
	defaultLLMBaseURL           = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel             = "gpt-4o-mini"
	defaultLLMTimeoutSeconds    = 60
)

// defaultFilters drop 720p releases and multi-episode batches ("01-12").
var defaultFilters = []string{"720", `\d+-\d`}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Program: Program{
			RSSInterval:    defaultRSSInterval,
			RenameInterval: defaultRenameInterval,
		},
		Downloader: Downloader{
			Type:               defaultDownloaderType,
			Host:               defaultDownloaderHost,
			Username:           defaultDownloaderUsername,
			Password:           defaultDownloaderPassword,
			Path:               defaultDownloaderPath,
			Category:           defaultDownloaderCategory,
			CollectionCategory: defaultCollectionCategory,
			TimeoutSeconds:     defaultDownloaderTimeout,
		},
		RSSParser: RSSParser{
			Enable:   true,
			Filter:   append([]string(nil), defaultFilters...),
			Language: defaultRSSLanguage,
		},
		BangumiManage: BangumiManage{
			Enable:       true,
			RenameMethod: defaultRenameMethod,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Proxy: Proxy{
			Type: defaultProxyType,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Rename:         true,
			Errors:         true,
		},
		ExperimentalLLM: ExperimentalLLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
	}
}
