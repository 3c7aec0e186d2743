package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fizetesi-info/internal/database"

	"github.com/google/uuid"
)

const (
	RunStatusRunning  = "running"
	RunStatusFinished = "finished"
	RunStatusFailed   = "failed"
)

type ScrapeRunRepository interface {
	StartRun(ctx context.Context, portal string) (uuid.UUID, error)
	FinishRun(ctx context.Context, runID uuid.UUID, status string, jobsFound int) error
	Log(ctx context.Context, runID uuid.UUID, level, message string) error
}

type PostgresScrapeRunRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresScrapeRunRepository(db database.DB) *PostgresScrapeRunRepository {
	return &PostgresScrapeRunRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *PostgresScrapeRunRepository) StartRun(ctx context.Context, portal string) (uuid.UUID, error) {
	if r == nil || r.db == nil {
		return uuid.Nil, database.ErrNotConfigured
	}
	portal = strings.TrimSpace(portal)
	if portal == "" {
		return uuid.Nil, fmt.Errorf("empty portal")
	}
	id := uuid.New()
	_, err := r.db.Exec(ctx,
		`INSERT INTO scrape_runs (id, source_portal, started_at, status) VALUES ($1,$2,$3,$4)`,
		id, portal, r.now(), RunStatusRunning,
	)
	if err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (r *PostgresScrapeRunRepository) FinishRun(ctx context.Context, runID uuid.UUID, status string, jobsFound int) error {
	if r == nil || r.db == nil {
		return database.ErrNotConfigured
	}
	if runID == uuid.Nil {
		return nil
	}
	status = strings.TrimSpace(status)
	if status == "" {
		status = RunStatusFinished
	}
	_, err := r.db.Exec(ctx,
		`UPDATE scrape_runs SET finished_at = $2, status = $3, jobs_found = $4 WHERE id = $1`,
		runID, r.now(), status, jobsFound,
	)
	return err
}

// Log appends a line to a run. Blank messages and the nil run are ignored.
func (r *PostgresScrapeRunRepository) Log(ctx context.Context, runID uuid.UUID, level, message string) error {
	if r == nil || r.db == nil {
		return database.ErrNotConfigured
	}
	if runID == uuid.Nil {
		return nil
	}
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO scrape_logs (id, scrape_run_id, level, message) VALUES ($1,$2,$3,$4)`,
		uuid.New(), runID, level, message,
	)
	return err
}
