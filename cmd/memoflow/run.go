package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/khartman/memoflow/internal/auth"
	"github.com/khartman/memoflow/internal/config"
	"github.com/khartman/memoflow/internal/generation"
	"github.com/khartman/memoflow/internal/linkcheck"
	"github.com/khartman/memoflow/internal/observability"
	"github.com/khartman/memoflow/internal/pipeline"
	"github.com/khartman/memoflow/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run the full memo generation pipeline end-to-end",
	Long: `Orchestrates the entire memo generation process: source discovery -> link verification -> analyst report -> investment memo.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runPipelineCmd,
}

var (
	runConfigPath  string
	runSubject     string
	runSuffix      string
	runHistoryPath string
	runDatabaseURL string
	runOutputDir   string
	runLinkTimeout int
	runAPIKey      string
	runUseBrowser  bool
	runVerbose     bool
)

func init() {
	// Config file flag (processed first)
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	runCommand.Flags().StringVarP(&runSubject, "subject", "s", "", "Company or entity to generate a memo for")
	runCommand.Flags().StringVar(&runSuffix, "suffix", "", "Document suffix links must carry to count as primary sources (default .pdf)")
	runCommand.Flags().StringVar(&runHistoryPath, "history", "", "Path to the JSON run-history file")
	runCommand.Flags().StringVarP(&runOutputDir, "output", "o", "", "Directory to write generated artifacts into")
	runCommand.Flags().IntVar(&runLinkTimeout, "link-timeout", 0, "Per-link verification timeout in seconds")
	runCommand.Flags().BoolVar(&runUseBrowser, "use-browser", false, "Use headless browser for SPA investor pages (requires Chrome)")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	runCommand.Flags().StringVar(&runAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for history persistence
	runCommand.Flags().StringVar(&runDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	rootCmd.AddCommand(runCommand)
}

// resolveConfig merges config file, CLI flags and defaults into a final Config.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	// Step 1: Load config file if provided
	var cfg config.Config
	if runConfigPath != "" {
		loadedCfg, err := config.LoadConfig(runConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}

		// Validate loaded config
		if err := loadedCfg.Validate(); err != nil {
			return cfg, err
		}

		cfg = *loadedCfg
		if runVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", runConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("subject") {
		cfg.Subject = runSubject
	}
	if cmd.Flags().Changed("suffix") {
		cfg.Suffix = runSuffix
	}
	if cmd.Flags().Changed("history") {
		cfg.HistoryPath = runHistoryPath
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("link-timeout") {
		cfg.LinkTimeoutSeconds = runLinkTimeout
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = runAPIKey
	}
	if cmd.Flags().Changed("use-browser") {
		cfg.UseBrowser = runUseBrowser
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = runDatabaseURL
	}

	// Step 3: Apply defaults for unset values
	defaults := config.Config{
		Suffix:             linkcheck.DefaultSuffix,
		LinkTimeoutSeconds: 5,
		OutputDir:          "out",
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: API key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	// Step 5: Database URL handling (optional; file history is the fallback)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return cfg, nil
}

func runPipelineCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if cfg.Subject == "" {
		return fmt.Errorf("--subject is required (via flag or config)")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Confirm the credential with the provider before starting any stage.
	if err := auth.Probe(ctx, cfg.APIKey); err != nil {
		if generation.IsAuthorizationRevoked(err) {
			auth.Prompt(os.Stderr)
		}
		return err
	}

	gen, err := newGenerator(ctx, cfg.APIKey)
	if err != nil {
		return err
	}

	checker := linkcheck.NewVerifier(
		linkcheck.WithSuffix(cfg.Suffix),
		linkcheck.WithTimeout(time.Duration(cfg.LinkTimeoutSeconds)*time.Second),
	)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	printer := observability.NewPrinter(os.Stdout)

	var verifier pipeline.Verifier = checker
	if cfg.Verbose {
		verifier = &reportingVerifier{checker: checker, suffix: cfg.Suffix, printer: printer}
	}

	orchestrator, err := pipeline.New(pipeline.Options{
		Generator: gen,
		Verifier:  verifier,
		History:   store,
		OnProgress: func(state types.RunState) {
			if cfg.Verbose {
				printer.PrintRunState(state)
			}
		},
		OnReauthorize: func() {
			auth.Prompt(os.Stderr)
		},
		Verbose: cfg.Verbose,
	})
	if err != nil {
		return err
	}

	final, err := orchestrator.Run(ctx, cfg.Subject)
	if err != nil {
		return err
	}

	// Authorization revoked mid-run: the pipeline reset itself and the
	// reauthorization instructions are already on stderr.
	if final.Stage == types.StageIdle {
		return fmt.Errorf("run aborted: API credential revoked")
	}

	if cfg.Verbose {
		for _, a := range final.Artifacts {
			printer.PrintArtifactPreview(a)
		}
	}

	return writeArtifacts(cfg.OutputDir, final.Artifacts)
}

// reportingVerifier wraps the link checker so verbose runs show the per-link
// results before the annotated text moves to the next stage.
type reportingVerifier struct {
	checker *linkcheck.Verifier
	suffix  string
	printer *observability.Printer
}

func (r *reportingVerifier) Verify(ctx context.Context, text string) string {
	urls := linkcheck.Extract(text, r.suffix)
	if len(urls) == 0 {
		return text
	}

	results := r.checker.Check(ctx, urls)
	r.printer.PrintLinkResults(results)
	return r.checker.Annotate(text, results)
}

// writeArtifacts persists generated documents under dir, one file each.
func writeArtifacts(dir string, artifacts []types.Artifact) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	for _, a := range artifacts {
		path := filepath.Join(dir, a.Filename)
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}
