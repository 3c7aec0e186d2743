package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"fizetesi-info/internal/app"
	"fizetesi-info/internal/config"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and seed categories",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

var migrateStatus bool

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "list pending migrations without applying them")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if !cfg.Database.Enabled() {
		return fmt.Errorf("migrate needs DB_HOST and DB_NAME")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	c, err := app.NewContainer(ctx, cfg, app.Options{}, log.Default())
	if err != nil {
		return err
	}
	defer func() {
		_ = c.Close()
	}()

	if migrateStatus {
		pending, err := c.PendingMigrations(ctx)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(pending) == 0 {
			fmt.Fprintln(out, "schema is up to date")
			return nil
		}
		for _, m := range pending {
			fmt.Fprintf(out, "pending V%d %s\n", m.Version, m.Name)
		}
		return nil
	}

	if err := c.Migrate(ctx); err != nil {
		return err
	}
	log.Printf("migration=done status=ok")
	return nil
}
