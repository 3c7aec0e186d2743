package dto

import (
	"time"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/pipeline"
)

type PipelineStatusResponseData struct {
	Running         bool              `json:"running"`
	Portals         []string          `json:"portals"`
	LastRun         *pipeline.Summary `json:"last_run,omitempty"`
	TotalJobs       int               `json:"total_jobs"`
	JobsToday       int               `json:"jobs_today"`
	PortalStats     []job.PortalStat  `json:"portal_stats"`
	RecentRuns      []job.ScrapeRun   `json:"recent_runs"`
	DatabaseHealthy bool              `json:"database_healthy"`
	RedisHealthy    bool              `json:"redis_healthy"`
	ServerTime      time.Time         `json:"server_time"`
}

type PipelineRunRequest struct {
	Portal   string `json:"portal"`
	MaxPages int    `json:"max_pages"`
	Category string `json:"category"`
	Enrich   *bool  `json:"enrich"`
	Persist  *bool  `json:"persist"`
	Details  *bool  `json:"details"`
}

type PipelineRunResponseData struct {
	Portals  []string `json:"portals"`
	MaxPages int      `json:"max_pages"`
	Category string   `json:"category,omitempty"`
	Enrich   bool     `json:"enrich"`
	Persist  bool     `json:"persist"`
	Details  bool     `json:"details"`
}
