package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fizetesi-info/internal/database"
	"fizetesi-info/internal/domain/job"

	"github.com/google/uuid"
)

type JobFilter struct {
	Category string
	Portal   string
	Level    string
	Limit    int
	Offset   int
}

// StoredJob is a persisted record with its row metadata.
type StoredJob struct {
	ID        uuid.UUID
	ScrapedAt time.Time
	job.EnrichedJob
}

type JobQueryRepository interface {
	ListJobs(ctx context.Context, f JobFilter) ([]StoredJob, error)
}

type PostgresJobQueryRepository struct {
	db database.DB
}

func NewPostgresJobQueryRepository(db database.DB) *PostgresJobQueryRepository {
	return &PostgresJobQueryRepository{db: db}
}

func (r *PostgresJobQueryRepository) ListJobs(ctx context.Context, f JobFilter) ([]StoredJob, error) {
	if r == nil || r.db == nil {
		return nil, database.ErrNotConfigured
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var where []string
	var args []any
	add := func(col, val string) {
		val = strings.TrimSpace(val)
		if val == "" {
			return
		}
		args = append(args, val)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("category", f.Category)
	add("source_portal", f.Portal)
	add("experience_level", f.Level)

	q := `SELECT id, source_portal, title, company, location, salary_min, salary_max,
		salary_currency, salary_period, salary_text, source_url, description, skills,
		category, experience_level, verified, scraped_at, enriched
		FROM jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, limit, offset)
	q += fmt.Sprintf(" ORDER BY scraped_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StoredJob, 0)
	for rows.Next() {
		var (
			sj                            StoredJob
			company, location, salaryText sql.NullString
			sourceURL, description        sql.NullString
			salaryMin, salaryMax          sql.NullInt32
			period, category, level       string
			skills                        []string
		)
		if err := rows.Scan(
			&sj.ID, &sj.SourcePortal, &sj.Title, &company, &location, &salaryMin, &salaryMax,
			&sj.SalaryCurrency, &period, &salaryText, &sourceURL, &description, &skills,
			&category, &level, &sj.Verified, &sj.ScrapedAt, &sj.Enriched,
		); err != nil {
			return nil, err
		}
		sj.Company = nullStringPtr(company)
		sj.Location = nullStringPtr(location)
		sj.SalaryText = nullStringPtr(salaryText)
		sj.SourceURL = nullStringPtr(sourceURL)
		sj.Description = nullStringPtr(description)
		sj.SalaryMin = nullIntPtr(salaryMin)
		sj.SalaryMax = nullIntPtr(salaryMax)
		sj.SalaryPeriod = job.Period(period)
		sj.Category = job.Category(category)
		sj.ExperienceLevel = job.Level(level)
		if skills == nil {
			skills = []string{}
		}
		sj.Skills = skills
		sj.ScrapedAt = sj.ScrapedAt.UTC()
		out = append(out, sj)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullStringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullIntPtr(n sql.NullInt32) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int32)
	return &v
}
