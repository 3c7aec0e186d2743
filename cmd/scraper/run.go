package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"fizetesi-info/internal/app"
	"fizetesi-info/internal/config"
	"fizetesi-info/internal/pipeline"
	"fizetesi-info/internal/service"
	"fizetesi-info/internal/usecase"

	"github.com/spf13/cobra"
)

var (
	runEnrich   bool
	runDetails  bool
	runPersist  bool
	runParallel bool
	runCategory string
	runWorkers  int
)

func init() {
	f := rootCmd.Flags()
	f.BoolVar(&runEnrich, "enrich", false, "refine records with the configured language model")
	f.BoolVar(&runDetails, "details", false, "fetch each posting page for its description before enrichment")
	f.BoolVar(&runPersist, "persist", false, "store records in the configured database")
	f.BoolVar(&runParallel, "parallel", false, "scrape portals concurrently")
	f.StringVar(&runCategory, "category", "", "portal search category")
	f.IntVar(&runWorkers, "workers", 0, "enrichment workers (default ENRICH_WORKERS)")
}

// parseArgs resolves the optional portal and page count arguments.
func parseArgs(args []string) (portal string, pages int, err error) {
	pages = usecase.DefaultPagesAll
	if len(args) > 0 {
		portal = strings.TrimSpace(args[0])
		pages = usecase.DefaultPagesSingle
	}
	if len(args) > 1 {
		pages, err = strconv.Atoi(strings.TrimSpace(args[1]))
		if err != nil || pages <= 0 {
			return "", 0, fmt.Errorf("invalid page count %q", args[1])
		}
	}
	return portal, pages, nil
}

func runScrape(cmd *cobra.Command, args []string) error {
	portal, pages, err := parseArgs(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	c, err := app.NewContainer(ctx, cfg, app.Options{
		Parallel:     runParallel,
		Category:     runCategory,
		SkipDatabase: !runPersist,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	if runPersist {
		if c.DB == nil {
			return fmt.Errorf("--persist needs DB_HOST and DB_NAME")
		}
		if err := c.Migrate(ctx); err != nil {
			return err
		}
	}

	workers := runWorkers
	if workers <= 0 {
		workers = cfg.Scraper.Workers
	}

	sum, err := c.Pipeline.Run(ctx, pipeline.Params{
		Portal:   portal,
		MaxPages: pages,
		Category: runCategory,
		Enrich:   runEnrich,
		Persist:  runPersist,
		Workers:  workers,
		Details:  runDetails,
	})
	if errors.Is(err, service.ErrUnknownPortal) {
		logger.Printf("scraper=%s status=error err=%v", portal, err)
		sum = pipeline.Summary{}
	} else if err != nil {
		return err
	}

	printSummary(cmd.OutOrStdout(), sum)
	return nil
}

func printSummary(w io.Writer, sum pipeline.Summary) {
	line := strings.Repeat("=", 50)
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Total jobs scraped: %d\n", sum.Total)
	for _, p := range sum.Portals {
		fmt.Fprintf(w, "  - %s: %d jobs", p.Portal, p.Scraped)
		if p.Enriched > 0 || p.Skipped > 0 {
			fmt.Fprintf(w, ", %d enriched, %d skipped", p.Enriched, p.Skipped)
		}
		if p.Saved > 0 {
			fmt.Fprintf(w, ", %d saved", p.Saved)
		}
		if p.Error != "" {
			fmt.Fprintf(w, " (error: %s)", p.Error)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, line)
}
