package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"fizetesi-info/internal/config"
	"fizetesi-info/internal/database"
	"fizetesi-info/internal/database/migration"
	dbpostgres "fizetesi-info/internal/database/postgres"
	"fizetesi-info/internal/database/seeder"
	"fizetesi-info/internal/enrichment"
	"fizetesi-info/internal/infrastructure/cache"
	"fizetesi-info/internal/pipeline"
	"fizetesi-info/internal/repository"
	"fizetesi-info/internal/scraper"
	"fizetesi-info/internal/service"
	"fizetesi-info/migrations"
)

type Options struct {
	// Parallel scrapes portals concurrently.
	Parallel bool
	// Category is passed to every portal search.
	Category string
	// SkipDatabase leaves storage unwired even when it is configured.
	SkipDatabase bool
}

// Container owns the long-lived collaborators. DB and the repositories are
// nil when no database is configured.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Redis *cache.Redis

	Scrapers *service.ScraperService
	Engine   *enrichment.Engine
	Pipeline *pipeline.Pipeline

	Jobs      *repository.PostgresJobRepository
	JobQuery  *repository.PostgresJobQueryRepository
	Runs      *repository.PostgresScrapeRunRepository
	PipeStats *repository.PostgresPipelineRepository
}

func NewContainer(ctx context.Context, cfg config.Config, opts Options, logger *log.Logger) (*Container, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Container{Config: cfg, Logger: logger}

	if cfg.Database.Enabled() && !opts.SkipDatabase {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := dbpostgres.Connect(connCtx, cfg.Database)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		c.DB = db
		c.Jobs = repository.NewPostgresJobRepository(db)
		c.JobQuery = repository.NewPostgresJobQueryRepository(db)
		c.Runs = repository.NewPostgresScrapeRunRepository(db)
		c.PipeStats = repository.NewPostgresPipelineRepository(db)
	}

	c.Redis = cache.NewRedis(cfg.Redis, logger)

	fcfg := FetcherConfig(cfg.Scraper)
	scrapers, err := scraper.Registry(func(portal string) scraper.PageFetcher {
		return scraper.NewFetcher(portal, fcfg, logger)
	}, logger)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Scrapers = service.NewScraperService(scrapers, scraper.Portals(), service.Options{Parallel: opts.Parallel, Category: opts.Category}, logger)

	engine, err := enrichment.Build(ctx, EnrichmentConfig(cfg.AI), c.Redis, cfg.Redis.TTL, logger)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("build enrichment: %w", err)
	}
	c.Engine = engine

	deps := pipeline.Deps{
		Orchestrator: c.Scrapers,
		Enricher:     c.Engine,
		Seen:         cache.NewSeenSet(c.Redis, cfg.Scraper.SeenTTL),
		Details:      c.Scrapers,
	}
	if c.DB != nil {
		deps.Store = c.Jobs
		deps.Runs = c.Runs
	}
	c.Pipeline = pipeline.New(deps, logger)

	return c, nil
}

// Migrate applies the embedded migrations and the default seeders.
func (c *Container) Migrate(ctx context.Context) error {
	if c == nil || c.DB == nil {
		return database.ErrNotConfigured
	}
	r := migration.Runner{FS: migrations.FS, Logger: c.Logger}
	if err := r.Run(ctx, c.DB.SQLDB()); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if err := (seeder.Runner{Seeders: seeder.Defaults(), Logger: c.Logger}).Run(ctx, c.DB); err != nil {
		return err
	}
	return nil
}

// PendingMigrations lists embedded migrations not yet applied.
func (c *Container) PendingMigrations(ctx context.Context) ([]migration.Migration, error) {
	if c == nil || c.DB == nil {
		return nil, database.ErrNotConfigured
	}
	return migration.Runner{FS: migrations.FS, Logger: c.Logger}.Pending(ctx, c.DB.SQLDB())
}

// DefaultParams are the pipeline settings derived from configuration.
func (c *Container) DefaultParams() pipeline.Params {
	return pipeline.Params{
		MaxPages: c.Config.Scraper.MaxPages,
		Enrich:   c.Engine.Enabled(),
		Persist:  c.DB != nil,
		Workers:  c.Config.Scraper.Workers,
		Details:  c.Config.Scraper.Details,
	}
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}

func FetcherConfig(s config.ScraperConfig) scraper.FetcherConfig {
	return scraper.FetcherConfig{
		DelayMin:   s.DelayMin,
		DelayMax:   s.DelayMax,
		BackoffMin: s.BackoffMin,
		BackoffMax: s.BackoffMax,
		Timeout:    s.RequestTimeout,
		MaxRetries: s.MaxRetries,
		UserAgents: scraper.DefaultUserAgents(),
	}
}

func EnrichmentConfig(ai config.AIConfig) enrichment.Config {
	return enrichment.Config{
		Provider:    ai.Provider,
		Endpoint:    ai.Endpoint,
		APIKey:      ai.APIKey,
		Model:       ai.Model,
		Temperature: ai.Temperature,
		MaxTokens: enrichment.StageTokens{
			Salary:   ai.SalaryMaxTokens,
			Category: ai.CategoryMaxTokens,
			Skills:   ai.SkillsMaxTokens,
			Level:    ai.LevelMaxTokens,
		},
		Timeout: ai.Timeout,
	}
}
