// Command scraper runs the job portal pipeline from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scraper [portal] [pages]",
	Short: "Scrape Hungarian job portals",
	Long: "Scrape job listings from the registered portals, normalize salaries and optionally enrich and store them.\n" +
		"Without arguments every portal is scraped with 3 pages; a single portal defaults to 5 pages.",
	Args:         cobra.MaximumNArgs(2),
	RunE:         runScrape,
	SilenceUsage: true,
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
