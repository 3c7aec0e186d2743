package repository

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"fizetesi-info/internal/database"
	"fizetesi-info/internal/domain/job"

	"github.com/google/uuid"
)

// JobRepository stores enriched jobs. SaveJobs upserts by portal and
// source URL and returns how many records were written.
type JobRepository interface {
	SaveJobs(ctx context.Context, jobs []job.EnrichedJob) (int, error)
}

type PostgresJobRepository struct {
	db  database.DB
	now func() time.Time
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const upsertJobSQL = `INSERT INTO jobs (
	id, source_portal, job_key, title, company, location,
	salary_min, salary_max, salary_currency, salary_period, salary_text,
	source_url, description, skills, category, experience_level, verified, scraped_at,
	enriched
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (source_portal, job_key) DO UPDATE SET
	title = EXCLUDED.title,
	company = COALESCE(EXCLUDED.company, jobs.company),
	location = COALESCE(EXCLUDED.location, jobs.location),
	salary_min = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN COALESCE(EXCLUDED.salary_min, jobs.salary_min) ELSE jobs.salary_min END,
	salary_max = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN COALESCE(EXCLUDED.salary_max, jobs.salary_max) ELSE jobs.salary_max END,
	salary_currency = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN EXCLUDED.salary_currency ELSE jobs.salary_currency END,
	salary_period = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN EXCLUDED.salary_period ELSE jobs.salary_period END,
	salary_text = COALESCE(EXCLUDED.salary_text, jobs.salary_text),
	description = COALESCE(EXCLUDED.description, jobs.description),
	skills = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN EXCLUDED.skills ELSE jobs.skills END,
	category = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN EXCLUDED.category ELSE jobs.category END,
	experience_level = CASE WHEN EXCLUDED.enriched OR NOT jobs.enriched THEN EXCLUDED.experience_level ELSE jobs.experience_level END,
	enriched = jobs.enriched OR EXCLUDED.enriched,
	verified = EXCLUDED.verified,
	scraped_at = EXCLUDED.scraped_at,
	updated_at = now()`

// SaveJobs writes each record independently. A failing row does not stop
// the rest; the failures are joined into the returned error. Salary,
// skills, category and level of a stored enriched row are kept when the
// incoming record was not enriched.
func (r *PostgresJobRepository) SaveJobs(ctx context.Context, jobs []job.EnrichedJob) (int, error) {
	if r == nil || r.db == nil {
		return 0, database.ErrNotConfigured
	}

	saved := 0
	var errs []error
	scrapedAt := r.now()
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		title := strings.TrimSpace(j.Title)
		if title == "" {
			continue
		}
		key := JobKey(j.RawJob)

		skills := j.Skills
		if skills == nil {
			skills = []string{}
		}
		currency := j.SalaryCurrency
		if currency == "" {
			currency = job.DefaultCurrency
		}
		period := j.SalaryPeriod
		if !period.Valid() {
			period = job.PeriodMonthly
		}
		category := j.Category
		if category == "" {
			category = job.CategoryOther
		}
		level := j.ExperienceLevel
		if level == "" {
			level = job.DefaultLevel
		}

		_, err := r.db.Exec(ctx, upsertJobSQL,
			uuid.New(),
			j.SourcePortal,
			key,
			title,
			nullableTextPtr(j.Company),
			nullableTextPtr(j.Location),
			j.SalaryMin,
			j.SalaryMax,
			currency,
			string(period),
			nullableTextPtr(j.SalaryText),
			nullableTextPtr(j.SourceURL),
			nullableTextPtr(j.Description),
			skills,
			string(category),
			string(level),
			j.Verified,
			scrapedAt,
			j.Enriched,
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("upsert job key=%s: %w", key, err))
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// JobKey is the per-portal identity of a record: its source URL, or a
// stable hash of title and company when the listing had no link.
func JobKey(j job.RawJob) string {
	if j.SourceURL != nil {
		if u := strings.TrimSpace(*j.SourceURL); u != "" {
			return u
		}
	}
	company := ""
	if j.Company != nil {
		company = strings.TrimSpace(*j.Company)
	}
	h := sha1.Sum([]byte(strings.ToLower(j.SourcePortal + "\x00" + strings.TrimSpace(j.Title) + "\x00" + company)))
	return "sha1-" + hex.EncodeToString(h[:])
}

func nullableText(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return s
}

func nullableTextPtr(s *string) any {
	if s == nil {
		return nil
	}
	return nullableText(*s)
}
