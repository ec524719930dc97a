// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Run inputs
	Subject string `json:"subject,omitempty"` // Company or entity to generate a memo for
	Suffix  string `json:"suffix,omitempty"`  // Document suffix to verify links against (default ".pdf")

	// Storage
	HistoryPath string `json:"history_path,omitempty"` // Path to the JSON run-history file
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL (overrides file history)
	OutputDir   string `json:"output_dir,omitempty"`   // Directory to write generated artifacts into

	// Limits
	LinkTimeoutSeconds int `json:"link_timeout_seconds,omitempty"` // Per-link verification timeout

	// Behavior
	APIKey     string `json:"api_key,omitempty"`     // Gemini API key
	UseBrowser bool   `json:"use_browser,omitempty"` // Use headless browser for SPA investor pages
	Verbose    bool   `json:"verbose,omitempty"`     // Print detailed debug information

	// Server
	ServerAddr string `json:"server_addr,omitempty"` // Listen address for the HTTP server
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if c.LinkTimeoutSeconds < 0 {
		return fmt.Errorf("config error: 'link_timeout_seconds' must be non-negative")
	}

	if c.Suffix != "" && c.Suffix[0] != '.' {
		return fmt.Errorf("config error: 'suffix' must start with a dot, got: %s", c.Suffix)
	}

	if c.OutputDir != "" {
		if info, err := os.Stat(c.OutputDir); err == nil && !info.IsDir() {
			return fmt.Errorf("config error: 'output_dir' is not a directory: %s", c.OutputDir)
		}
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty string fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Subject == "" {
		result.Subject = defaults.Subject
	}
	if result.Suffix == "" {
		result.Suffix = defaults.Suffix
	}
	if result.HistoryPath == "" {
		result.HistoryPath = defaults.HistoryPath
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.OutputDir == "" {
		result.OutputDir = defaults.OutputDir
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.ServerAddr == "" {
		result.ServerAddr = defaults.ServerAddr
	}

	// Int fields: use default if zero
	if result.LinkTimeoutSeconds == 0 {
		result.LinkTimeoutSeconds = defaults.LinkTimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge.
	// CLI flags should always win for bools.

	return result
}
