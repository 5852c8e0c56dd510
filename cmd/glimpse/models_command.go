package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"glimpse/internal/catalog"
	"glimpse/internal/config"
	"glimpse/internal/logging"
	"glimpse/internal/openrouter"
)

// newModelsCommand lists catalog models on the terminal, outside of MCP.
// It fetches a fresh listing every run; the snapshot cache belongs to the
// server process.
func newModelsCommand(configFlag *string) *cobra.Command {
	var (
		query      string
		provider   string
		minContext int
		freeOnly   bool
		visionOnly bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models from the OpenRouter catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(*configFlag)
			if err != nil {
				return err
			}
			if err := cfg.RequireAPIKey(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:  "warn",
				Format: cfg.Logging.Format,
			})
			if err != nil {
				return err
			}

			client := newGatewayClient(cfg, logger)
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch model catalog: %w", err)
			}

			directory := catalog.NewDirectory(logger)
			directory.SetAll(models)

			filter := catalog.Filter{
				Query:      query,
				Provider:   provider,
				MinContext: minContext,
				Limit:      limit,
			}
			if visionOnly {
				filter.Capabilities = openrouter.Capabilities{Vision: true}
			}
			if freeOnly {
				zero := 0.0
				filter.MaxPromptPrice = &zero
				filter.MaxCompletionPrice = &zero
			}

			hits := directory.Search(filter)
			if len(hits) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No models matched the filters.")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderModelTable(hits))
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d models shown\n", len(hits), directory.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Substring to match against id, description, and provider")
	cmd.Flags().StringVar(&provider, "provider", "", "Only models from this provider")
	cmd.Flags().IntVar(&minContext, "min-context", 0, "Minimum context length in tokens")
	cmd.Flags().BoolVar(&freeOnly, "free", false, "Only zero-cost models")
	cmd.Flags().BoolVar(&visionOnly, "vision", false, "Only vision-capable models")
	cmd.Flags().IntVar(&limit, "limit", 25, "Maximum rows to print")

	return cmd
}
