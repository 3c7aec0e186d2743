package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fizetesi-info/internal/config"
	"fizetesi-info/internal/delivery/http/handler"
	"fizetesi-info/internal/delivery/http/middleware"
	"fizetesi-info/internal/delivery/http/routes"
	v1 "fizetesi-info/internal/delivery/http/routes/v1"
	"fizetesi-info/internal/repository"
	"fizetesi-info/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber *fiber.App
}

// Usecases feeds the HTTP layer. JobList may be nil when no database is
// configured; GET /api/v1/jobs is then not registered.
type Usecases struct {
	Status  usecase.PipelineStatusUsecase
	Trigger usecase.PipelineUsecase
	JobList usecase.JobListUsecase
}

func New(cfg config.Config, uc Usecases, logger *log.Logger) *App {
	f := fiber.New(fiber.Config{AppName: cfg.App.AppName})

	registerGlobalMiddleware(f, logger)

	handlers := v1.Handlers{
		Pipeline: handler.NewPipelineHandler(uc.Status, uc.Trigger, logger),
	}
	if uc.JobList != nil {
		handlers.Jobs = handler.NewJobsHandler(uc.JobList)
	}
	routes.NewRegistry(handlers).Register(f)

	return &App{Fiber: f}
}

// Bootstrap builds the container and the fiber app. Background pipeline
// runs are bound to ctx.
func Bootstrap(ctx context.Context, cfg config.Config, logger *log.Logger) (*App, *Container, func() error, error) {
	if logger == nil {
		logger = log.Default()
	}
	c, err := NewContainer(ctx, cfg, Options{}, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	if c.DB != nil {
		if err := c.Migrate(ctx); err != nil {
			_ = c.Close()
			return nil, nil, nil, err
		}
	}

	var stats repository.PipelineRepository
	var dbPing usecase.Pinger
	var jobList usecase.JobListUsecase
	if c.DB != nil {
		stats = c.PipeStats
		dbPing = c.DB
		jobList = usecase.NewJobListUsecase(c.JobQuery, c.Redis, cfg.Redis.TTL, logger)
	}

	app := New(cfg, Usecases{
		Status:  usecase.NewPipelineStatusUsecase(c.Pipeline, stats, dbPing, c.Redis, logger),
		Trigger: usecase.NewPipelineUsecase(ctx, c.Pipeline, c.DefaultParams(), logger),
		JobList: jobList,
	}, logger)

	return app, c, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *log.Logger) {
	if app == nil {
		return
	}

	errMw := middleware.NewErrorMiddleware(logger)
	accessMw := middleware.NewAccessLogMiddleware(logger, "/health")
	app.Use(accessMw.Middleware())
	app.Use(errMw.Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
