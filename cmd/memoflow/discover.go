package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/khartman/memoflow/internal/discovery"
	"github.com/khartman/memoflow/internal/linkcheck"
)

var (
	discoverSubject    string
	discoverURL        string
	discoverSuffix     string
	discoverUseBrowser bool
	discoverVerbose    bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find primary source documents for a company",
	Long: `Locates investor-relations and filing pages for a company and extracts the
document links they carry. Provide --url to scan a known page directly, or
--subject to search for candidate pages first (requires GOOGLE_SEARCH_API_KEY
and GOOGLE_SEARCH_CX).`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverSubject, "subject", "s", "", "Company to search filing pages for")
	discoverCmd.Flags().StringVar(&discoverURL, "url", "", "Page URL to extract document links from directly")
	discoverCmd.Flags().StringVar(&discoverSuffix, "suffix", linkcheck.DefaultSuffix, "Document suffix to collect")
	discoverCmd.Flags().BoolVar(&discoverUseBrowser, "use-browser", false, "Use headless browser for SPA investor pages (requires Chrome)")
	discoverCmd.Flags().BoolVarP(&discoverVerbose, "verbose", "v", false, "Print detailed debug information")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	if discoverSubject == "" && discoverURL == "" {
		return fmt.Errorf("either --subject or --url must be provided")
	}

	opts := discovery.Options{
		Suffix:     discoverSuffix,
		UseBrowser: discoverUseBrowser,
		Verbose:    discoverVerbose,
	}

	pages := []string{}
	if discoverURL != "" {
		pages = append(pages, discoverURL)
	} else {
		searchKey := os.Getenv("GOOGLE_SEARCH_API_KEY")
		searchCX := os.Getenv("GOOGLE_SEARCH_CX")
		if searchKey == "" || searchCX == "" {
			return fmt.Errorf("GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_CX are required for subject search")
		}

		searcher, err := discovery.NewSearcher(ctx, searchKey, searchCX)
		if err != nil {
			return fmt.Errorf("failed to create searcher: %w", err)
		}

		found, err := searcher.FindFilingPages(ctx, discoverSubject)
		if err != nil {
			return fmt.Errorf("filing page search failed: %w", err)
		}
		if len(found) == 0 {
			return fmt.Errorf("no filing pages found for %s", discoverSubject)
		}
		pages = found
	}

	total := 0
	for _, page := range pages {
		links, err := discovery.Discover(ctx, page, opts)
		if err != nil {
			// A single unreachable page should not sink the whole scan.
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", page, err)
			continue
		}

		for _, link := range links {
			if link.Text != "" {
				fmt.Printf("%s\t%s\n", link.URL, link.Text)
			} else {
				fmt.Println(link.URL)
			}
			total++
		}
	}

	if total == 0 {
		return fmt.Errorf("no %s links found", discoverSuffix)
	}
	return nil
}
