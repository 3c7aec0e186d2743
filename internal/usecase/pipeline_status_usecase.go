package usecase

import (
	"context"
	"log"
	"sync"
	"time"

	"fizetesi-info/internal/delivery/http/dto"
	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/repository"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PipelineStatusUsecase interface {
	GetStatus(ctx context.Context) (dto.PipelineStatusResponseData, error)
}

// PipelineStatus merges the in-process run state with stored statistics.
// Storage failures are logged and leave the affected fields empty.
type PipelineStatus struct {
	runner PipelineRunner
	repo   repository.PipelineRepository
	db     Pinger
	redis  Pinger
	log    *log.Logger
	now    func() time.Time
}

func NewPipelineStatusUsecase(runner PipelineRunner, repo repository.PipelineRepository, db Pinger, redis Pinger, logger *log.Logger) *PipelineStatus {
	if logger == nil {
		logger = log.Default()
	}
	return &PipelineStatus{runner: runner, repo: repo, db: db, redis: redis, log: logger, now: time.Now}
}

func (u *PipelineStatus) GetStatus(ctx context.Context) (dto.PipelineStatusResponseData, error) {
	out := dto.PipelineStatusResponseData{
		Portals:     []string{},
		PortalStats: []job.PortalStat{},
		RecentRuns:  []job.ScrapeRun{},
		ServerTime:  u.now().UTC(),
	}
	if u.runner != nil {
		st := u.runner.Status()
		out.Running = st.Running
		out.LastRun = st.Last
		if p := u.runner.Portals(); p != nil {
			out.Portals = p
		}
	}

	out.DatabaseHealthy = ping(ctx, u.db)
	out.RedisHealthy = ping(ctx, u.redis)

	if u.repo == nil || !out.DatabaseHealthy {
		return out, nil
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := u.repo.GetTotalJobs(ctx)
		if err != nil {
			u.log.Printf("pipeline_status step=total_jobs status=error err=%v", err)
			return
		}
		out.TotalJobs = n
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		n, err := u.repo.GetJobsToday(ctx)
		if err != nil {
			u.log.Printf("pipeline_status step=jobs_today status=error err=%v", err)
			return
		}
		out.JobsToday = n
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stats, err := u.repo.PortalStats(ctx)
		if err != nil {
			u.log.Printf("pipeline_status step=portal_stats status=error err=%v", err)
			return
		}
		out.PortalStats = stats
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runs, err := u.repo.LatestRuns(ctx, 10)
		if err != nil {
			u.log.Printf("pipeline_status step=recent_runs status=error err=%v", err)
			return
		}
		out.RecentRuns = runs
	}()

	wg.Wait()
	return out, nil
}

func ping(ctx context.Context, p Pinger) bool {
	if p == nil {
		return false
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return p.Ping(pingCtx) == nil
}
