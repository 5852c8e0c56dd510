package config

const (
	defaultBaseURL        = "https://openrouter.ai/api/v1"
	defaultModel          = "qwen/qwen2.5-vl-72b-instruct:free"
	defaultReferer        = "https://github.com/five82/glimpse"
	defaultTitle          = "Glimpse MCP Server"
	defaultTimeoutSeconds = 60
	defaultMaxRetries     = 3
	defaultSnapshotPath   = "~/.cache/glimpse/catalog.db"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		OpenRouter: OpenRouter{
			BaseURL:        defaultBaseURL,
			DefaultModel:   defaultModel,
			Referer:        defaultReferer,
			Title:          defaultTitle,
			TimeoutSeconds: defaultTimeoutSeconds,
			MaxRetries:     defaultMaxRetries,
		},
		Catalog: Catalog{
			SnapshotEnabled: true,
			SnapshotPath:    defaultSnapshotPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
