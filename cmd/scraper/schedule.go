package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"fizetesi-info/internal/app"
	"fizetesi-info/internal/config"
	"fizetesi-info/internal/scheduler"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the full pipeline every SCRAPE_INTERVAL seconds",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var scheduleSkipFirst bool

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleSkipFirst, "skip-first", false, "wait for the first tick instead of running immediately")
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()
	c, err := app.NewContainer(ctx, cfg, app.Options{}, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()
	if c.DB != nil {
		if err := c.Migrate(ctx); err != nil {
			return err
		}
	}

	s, err := scheduler.New(c.Pipeline, cfg.Scraper.Interval, c.DefaultParams(), logger)
	if err != nil {
		return err
	}
	if err := s.Start(ctx, !scheduleSkipFirst); err != nil {
		return err
	}

	<-ctx.Done()
	s.Stop()
	return nil
}
