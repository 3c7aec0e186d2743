package seeder

import (
	"context"
	"fmt"

	"fizetesi-info/internal/database"
	"fizetesi-info/internal/domain/job"
)

const upsertCategorySQL = `INSERT INTO categories (name, position) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET position = EXCLUDED.position`

// CategoriesSeeder inserts the closed job category set. Positions follow
// job.Categories so listings can sort by display order.
type CategoriesSeeder struct{}

func (CategoriesSeeder) Name() string { return "categories" }

func (CategoriesSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "categories", "id", "name", "position", "created_at"); err != nil {
		return err
	}

	return database.InTx(ctx, db, func(tx database.Tx) error {
		for i, c := range job.Categories() {
			if _, err := tx.Exec(ctx, upsertCategorySQL, string(c), i); err != nil {
				return fmt.Errorf("insert category %s: %w", c, err)
			}
		}
		return nil
	})
}
