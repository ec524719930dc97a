// Package main provides the entry point for the memoflow CLI.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/khartman/memoflow/internal/config"
	"github.com/khartman/memoflow/internal/generation"
	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/llm"
)

var rootCmd = &cobra.Command{
	Use:   "memoflow",
	Short: "Investment memo generator",
	Long:  "Memoflow drafts investment memos for a company in three stages: primary source discovery, analyst report, and final memo, with concurrent PDF link verification between stages.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newGenerator builds the Gemini-backed generator used by run and serve.
func newGenerator(ctx context.Context, apiKey string) (generation.Generator, error) {
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return generation.NewGeminiGenerator(client), nil
}

// openStore selects the history backend: PostgreSQL when a database URL is
// configured, a local JSON file otherwise.
func openStore(ctx context.Context, cfg config.Config) (history.Store, func(), error) {
	if cfg.DatabaseURL != "" {
		pg, err := history.ConnectPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, fmt.Errorf("failed to migrate history schema: %w", err)
		}
		return pg, pg.Close, nil
	}

	path := cfg.HistoryPath
	if path == "" {
		defaultPath, err := history.DefaultHistoryPath()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve history path: %w", err)
		}
		path = defaultPath
	}
	return history.NewFileStore(path), func() {}, nil
}
