package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/khartman/memoflow/internal/linkcheck"
	"github.com/khartman/memoflow/internal/server"
)

var (
	serveConfigPath string
	serveAddr       string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for running the memo pipeline and browsing run history.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Address to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	runConfigPath = serveConfigPath
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") || cfg.ServerAddr == "" {
		cfg.ServerAddr = serveAddr
	}

	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	password := os.Getenv("SERVER_PASSWORD")
	if password == "" {
		return fmt.Errorf("SERVER_PASSWORD environment variable is required")
	}

	gen, err := newGenerator(ctx, cfg.APIKey)
	if err != nil {
		return err
	}

	verifier := linkcheck.NewVerifier(
		linkcheck.WithSuffix(cfg.Suffix),
		linkcheck.WithTimeout(time.Duration(cfg.LinkTimeoutSeconds)*time.Second),
	)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	srv, err := server.New(server.Config{
		Addr:      cfg.ServerAddr,
		Password:  password,
		Generator: gen,
		Verifier:  verifier,
		History:   store,
		Verbose:   cfg.Verbose,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}
