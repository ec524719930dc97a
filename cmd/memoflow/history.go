package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khartman/memoflow/internal/config"
	"github.com/khartman/memoflow/internal/observability"
)

var (
	historyPath        string
	historyDatabaseURL string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent memo runs",
	Long:  `Lists stored runs, most recent first. At most the five latest runs are kept; rerunning a subject replaces its previous entry.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyPath, "history", "", "Path to the JSON run-history file")
	historyCmd.Flags().StringVar(&historyDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg := config.Config{
		HistoryPath: historyPath,
		DatabaseURL: historyDatabaseURL,
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	observability.NewPrinter(os.Stdout).PrintHistory(entries)
	return nil
}
