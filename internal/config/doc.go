// Package config loads, normalizes, and validates glimpse configuration.
// Settings come from a TOML file with environment variable overrides for
// the OpenRouter connection; a .env file in the working directory is read
// best-effort.
package config
