package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	// A .env in the working directory fills the process environment without
	// overriding variables already set. Absence is not an error.
	_ = godotenv.Load()

	if err := c.normalizeOpenRouter(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeOpenRouter() error {
	if c.OpenRouter.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.OpenRouter.APIKey = value
		}
	}
	c.OpenRouter.APIKey = strings.TrimSpace(c.OpenRouter.APIKey)

	if value, ok := os.LookupEnv("OPENROUTER_BASE_URL"); ok && strings.TrimSpace(value) != "" {
		c.OpenRouter.BaseURL = value
	}
	c.OpenRouter.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenRouter.BaseURL), "/")
	if c.OpenRouter.BaseURL == "" {
		c.OpenRouter.BaseURL = defaultBaseURL
	}

	if value, ok := os.LookupEnv("OPENROUTER_DEFAULT_MODEL"); ok && strings.TrimSpace(value) != "" {
		c.OpenRouter.DefaultModel = value
	}
	c.OpenRouter.DefaultModel = strings.TrimSpace(c.OpenRouter.DefaultModel)
	if c.OpenRouter.DefaultModel == "" {
		c.OpenRouter.DefaultModel = defaultModel
	}

	c.OpenRouter.Referer = strings.TrimSpace(c.OpenRouter.Referer)
	if c.OpenRouter.Referer == "" {
		c.OpenRouter.Referer = defaultReferer
	}
	c.OpenRouter.Title = strings.TrimSpace(c.OpenRouter.Title)
	if c.OpenRouter.Title == "" {
		c.OpenRouter.Title = defaultTitle
	}
	if c.OpenRouter.TimeoutSeconds <= 0 {
		c.OpenRouter.TimeoutSeconds = defaultTimeoutSeconds
	}
	if c.OpenRouter.MaxRetries < 0 {
		c.OpenRouter.MaxRetries = defaultMaxRetries
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	if strings.TrimSpace(c.Catalog.SnapshotPath) == "" {
		c.Catalog.SnapshotPath = defaultSnapshotPath
	}
	var err error
	if c.Catalog.SnapshotPath, err = expandPath(c.Catalog.SnapshotPath); err != nil {
		return fmt.Errorf("catalog.snapshot_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		var err error
		if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}
