package seeder

import (
	"context"
	"fmt"
	"log"
	"time"

	"fizetesi-info/internal/database"
)

type Runner struct {
	Seeders []Seeder
	Logger  *log.Logger
}

// Run executes the seeders in order and stops at the first failure.
func (r Runner) Run(ctx context.Context, db database.DB) error {
	if db == nil {
		return database.ErrNotConfigured
	}
	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	for _, s := range r.Seeders {
		if s == nil {
			continue
		}
		start := time.Now()
		if err := s.Run(ctx, db); err != nil {
			logger.Printf("seeder=%s status=error err=%v", s.Name(), err)
			return fmt.Errorf("seed %s: %w", s.Name(), err)
		}
		logger.Printf("seeder=%s status=ok duration=%s", s.Name(), time.Since(start).Round(time.Millisecond))
	}
	return nil
}
