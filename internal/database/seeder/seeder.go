// Package seeder loads reference data the API and the enrichment stages
// rely on, such as the closed category set.
package seeder

import (
	"context"

	"fizetesi-info/internal/database"
)

// Seeder must be idempotent; it runs after every migration pass.
type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
