package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"glimpse/internal/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(configFlag))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetPath, "path", "", "Where to write the sample config")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")

	return cmd
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(*configFlag)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if exists {
				fmt.Fprintf(out, "Config file: %s\n", path)
			} else {
				fmt.Fprintf(out, "Config file: %s (not present, defaults in effect)\n", path)
			}
			fmt.Fprintf(out, "OpenRouter base URL:  %s\n", cfg.OpenRouter.BaseURL)
			fmt.Fprintf(out, "Default model:        %s\n", cfg.OpenRouter.DefaultModel)
			fmt.Fprintf(out, "API key:              %s\n", maskKey(cfg.OpenRouter.APIKey))
			fmt.Fprintf(out, "Request timeout:      %ds\n", cfg.OpenRouter.TimeoutSeconds)
			fmt.Fprintf(out, "Max retries:          %d\n", cfg.OpenRouter.MaxRetries)
			fmt.Fprintf(out, "Snapshot enabled:     %t\n", cfg.Catalog.SnapshotEnabled)
			fmt.Fprintf(out, "Snapshot path:        %s\n", cfg.Catalog.SnapshotPath)
			fmt.Fprintf(out, "Log format:           %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log level:            %s\n", cfg.Logging.Level)
			if cfg.Logging.Dir != "" {
				fmt.Fprintf(out, "Log directory:        %s\n", cfg.Logging.Dir)
			}
			return nil
		},
	}
}

// maskKey keeps enough of the key to recognize it without exposing it.
func maskKey(key string) string {
	if key == "" {
		return "(unset)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
