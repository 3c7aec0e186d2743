package repository

import (
	"context"
	"database/sql"
	"time"

	"fizetesi-info/internal/database"
	"fizetesi-info/internal/domain/job"
)

type PipelineRepository interface {
	GetTotalJobs(ctx context.Context) (int, error)
	GetJobsToday(ctx context.Context) (int, error)
	PortalStats(ctx context.Context) ([]job.PortalStat, error)
	LatestRuns(ctx context.Context, limit int) ([]job.ScrapeRun, error)
}

type PostgresPipelineRepository struct {
	db database.DB
}

func NewPostgresPipelineRepository(db database.DB) *PostgresPipelineRepository {
	return &PostgresPipelineRepository{db: db}
}

func (r *PostgresPipelineRepository) GetTotalJobs(ctx context.Context) (int, error) {
	row := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (r *PostgresPipelineRepository) GetJobsToday(ctx context.Context) (int, error) {
	row := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE scraped_at >= CURRENT_DATE`)
	var c int
	if err := row.Scan(&c); err != nil {
		return 0, err
	}
	return c, nil
}

func (r *PostgresPipelineRepository) PortalStats(ctx context.Context) ([]job.PortalStat, error) {
	rows, err := r.db.Query(ctx, `SELECT source_portal, COUNT(*) AS total_jobs, MAX(scraped_at) AS last_scraped FROM jobs GROUP BY source_portal ORDER BY total_jobs DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.PortalStat, 0)
	for rows.Next() {
		var portal sql.NullString
		var total int
		var last sql.NullTime
		if err := rows.Scan(&portal, &total, &last); err != nil {
			return nil, err
		}
		st := job.PortalStat{Portal: "unknown", TotalJobs: total}
		if portal.Valid {
			st.Portal = portal.String
		}
		if last.Valid {
			st.LastScraped = last.Time.UTC()
		} else {
			st.LastScraped = time.Time{}
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresPipelineRepository) LatestRuns(ctx context.Context, limit int) ([]job.ScrapeRun, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, source_portal, started_at, finished_at, status, jobs_found
		 FROM scrape_runs
		 ORDER BY started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]job.ScrapeRun, 0)
	for rows.Next() {
		var run job.ScrapeRun
		var finished sql.NullTime
		if err := rows.Scan(&run.ID, &run.SourcePortal, &run.StartedAt, &finished, &run.Status, &run.JobsFound); err != nil {
			return nil, err
		}
		run.StartedAt = run.StartedAt.UTC()
		if finished.Valid {
			t := finished.Time.UTC()
			run.FinishedAt = &t
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
