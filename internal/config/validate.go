package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is well-formed. The API key is not
// checked here: commands that talk to the gateway call RequireAPIKey, so
// inspection commands like "config show" work without one.
func (c *Config) Validate() error {
	if err := c.validateOpenRouter(); err != nil {
		return err
	}
	return c.validateLogging()
}

// RequireAPIKey fails when no API key is configured. Called by commands
// that issue gateway requests; missing key is fatal at their startup.
func (c *Config) RequireAPIKey() error {
	if c.OpenRouter.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = "~/.config/glimpse/config.toml"
	}
	return fmt.Errorf("openrouter.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'glimpse config init')", defaultPath)
}

func (c *Config) validateOpenRouter() error {
	if !strings.HasPrefix(c.OpenRouter.BaseURL, "http://") && !strings.HasPrefix(c.OpenRouter.BaseURL, "https://") {
		return fmt.Errorf("openrouter.base_url must be an http(s) URL, got %q", c.OpenRouter.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be \"console\" or \"json\", got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}
