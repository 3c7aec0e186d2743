package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/repository"
)

type JobListParams struct {
	Category string
	Portal   string
	Level    string
	Limit    int
	Offset   int
}

type JobListUsecase interface {
	ListJobs(ctx context.Context, params JobListParams) ([]repository.StoredJob, error)
}

type JobList struct {
	jobs   repository.JobQueryRepository
	cache  SearchCache
	ttl    time.Duration
	logger *log.Logger
}

func NewJobListUsecase(jobs repository.JobQueryRepository, cache SearchCache, ttl time.Duration, logger *log.Logger) *JobList {
	if logger == nil {
		logger = log.Default()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &JobList{jobs: jobs, cache: cache, ttl: ttl, logger: logger}
}

// ListJobs validates the filter against the closed category and level sets
// and serves repeated queries from the cache.
func (u *JobList) ListJobs(ctx context.Context, params JobListParams) ([]repository.StoredJob, error) {
	if u == nil || u.jobs == nil {
		return nil, ErrInternal
	}
	if params.Limit == 0 {
		params.Limit = 20
	}
	if params.Limit < 0 || params.Limit > 100 || params.Offset < 0 {
		return nil, ErrInvalidInput
	}
	if s := strings.TrimSpace(params.Category); s != "" {
		c, ok := job.ParseCategory(s)
		if !ok {
			return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
		}
		params.Category = string(c)
	}
	if s := strings.TrimSpace(params.Level); s != "" {
		l, ok := job.ParseLevel(s)
		if !ok {
			return nil, fmt.Errorf("%w: unknown level %q", ErrInvalidInput, s)
		}
		params.Level = string(l)
	}
	params.Portal = strings.TrimSpace(params.Portal)

	key := JobsListCacheKey(params)
	if u.cache != nil {
		var cached []repository.StoredJob
		hit, err := u.cache.GetJSON(ctx, key, &cached)
		if err == nil && hit {
			u.logger.Printf("[Jobs] Cache HIT: %s", key)
			return cached, nil
		}
		u.logger.Printf("[Jobs] Cache MISS: %s", key)
	}

	items, err := u.jobs.ListJobs(ctx, repository.JobFilter{
		Category: params.Category,
		Portal:   params.Portal,
		Level:    params.Level,
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, items, u.ttl); err != nil {
			u.logger.Printf("[Jobs] Cache SET failed: %s err=%v", key, err)
		}
	}
	return items, nil
}
