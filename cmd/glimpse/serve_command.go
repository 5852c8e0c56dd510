package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"glimpse/internal/catalog"
	"glimpse/internal/config"
	"glimpse/internal/imagesource"
	"glimpse/internal/logging"
	"glimpse/internal/mcp"
	"glimpse/internal/openrouter"
	"glimpse/internal/resolver"
	"glimpse/internal/tools"
)

func newServeCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}

			logOpts := logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Writer: os.Stderr,
			}
			if cfg.Logging.Dir != "" {
				logOpts.FilePath = filepath.Join(cfg.Logging.Dir, "glimpse.log")
			}
			logger, err := logging.New(logOpts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			client := newGatewayClient(cfg, logger)
			directory := catalog.NewDirectory(logger)

			var serviceOpts []tools.ServiceOption
			if cfg.Catalog.SnapshotEnabled {
				store, err := catalog.OpenStore(cfg.Catalog.SnapshotPath)
				if err != nil {
					logger.Warn("catalog snapshot store unavailable",
						logging.Error(err),
						logging.String("path", cfg.Catalog.SnapshotPath),
						logging.String(logging.FieldImpact, "catalog starts cold and refreshes on first search"))
				} else {
					defer store.Close()
					serviceOpts = append(serviceOpts, tools.WithSnapshotStore(store))
					restoreSnapshot(ctx, store, directory, logger)
				}
			}

			service := tools.NewService(
				client,
				directory,
				resolver.New(client, logger),
				imagesource.NewLoader(logger),
				cfg.OpenRouter.DefaultModel,
				logger,
				serviceOpts...,
			)

			registry := tools.NewRegistry()
			if err := service.RegisterAll(registry); err != nil {
				return err
			}

			server := mcp.NewServer("glimpse", version, registry, os.Stdout, logger)
			logger.Info("mcp server starting",
				logging.String("version", version),
				logging.String("default_model", cfg.OpenRouter.DefaultModel))
			return server.Serve(ctx, os.Stdin)
		},
	}
}

func newGatewayClient(cfg *config.Config, logger *slog.Logger) *openrouter.Client {
	return openrouter.NewClient(openrouter.Config{
		APIKey:         cfg.OpenRouter.APIKey,
		BaseURL:        cfg.OpenRouter.BaseURL,
		Referer:        cfg.OpenRouter.Referer,
		Title:          cfg.OpenRouter.Title,
		TimeoutSeconds: cfg.OpenRouter.TimeoutSeconds,
	},
		openrouter.WithMaxRetries(cfg.OpenRouter.MaxRetries),
		openrouter.WithLogger(logger),
	)
}

// restoreSnapshot pre-warms the directory from the last persisted listing
// when it is still inside the TTL. Failures only cost the warm start.
func restoreSnapshot(ctx context.Context, store *catalog.Store, directory *catalog.Directory, logger *slog.Logger) {
	models, fetchedAt, ok, err := store.Load(ctx)
	if err != nil {
		logger.Warn("catalog snapshot load failed", logging.Error(err))
		return
	}
	if !ok {
		return
	}
	if time.Since(fetchedAt) >= catalog.TTL {
		logger.Debug("catalog snapshot expired",
			logging.String("fetched_at", fetchedAt.Format(time.RFC3339)))
		return
	}
	directory.Restore(models, fetchedAt)
	logger.Info("catalog restored from snapshot",
		logging.Int("models", directory.Len()),
		logging.String("fetched_at", fetchedAt.Format(time.RFC3339)))
}
