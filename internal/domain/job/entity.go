package job

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultCurrency = "HUF"

type Period string

const (
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
	PeriodHourly  Period = "hourly"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodMonthly, PeriodYearly, PeriodHourly:
		return true
	}
	return false
}

type Level string

const (
	LevelJunior    Level = "junior"
	LevelMedior    Level = "medior"
	LevelSenior    Level = "senior"
	LevelLead      Level = "lead"
	LevelExecutive Level = "executive"

	DefaultLevel = LevelMedior
)

var levels = []Level{LevelJunior, LevelMedior, LevelSenior, LevelLead, LevelExecutive}

// ParseLevel matches s case-insensitively against the known levels.
func ParseLevel(s string) (Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, l := range levels {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

type Category string

const CategoryOther Category = "Other"

var categories = []Category{
	"IT", "Engineering", "Sales", "Marketing", "HR", "Finance",
	"Operations", "Legal", "Healthcare", "Education", CategoryOther,
}

// Categories returns the closed category set in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s case-insensitively against the closed set.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// RawJob is one listing as extracted from a portal page.
type RawJob struct {
	Title          string
	Company        *string
	Location       *string
	SalaryMin      *int
	SalaryMax      *int
	SalaryCurrency string
	SalaryPeriod   Period
	SalaryText     *string
	SourceURL      *string
	SourcePortal   string
	Description    *string
	Skills         []string
	Verified       bool
}

// Clone returns a deep copy so callers can derive new records without
// touching the original.
func (j RawJob) Clone() RawJob {
	out := j
	out.Company = clonePtr(j.Company)
	out.Location = clonePtr(j.Location)
	out.SalaryMin = clonePtr(j.SalaryMin)
	out.SalaryMax = clonePtr(j.SalaryMax)
	out.SalaryText = clonePtr(j.SalaryText)
	out.SourceURL = clonePtr(j.SourceURL)
	out.Description = clonePtr(j.Description)
	out.Skills = append(make([]string, 0, len(j.Skills)), j.Skills...)
	return out
}

type EnrichedJob struct {
	RawJob
	Category        Category
	ExperienceLevel Level
	// Enriched is set when at least one model stage produced the values
	// above. Stored AI fields are only replaced by enriched records.
	Enriched bool
}

// JobDetails is the result of an optional detail-page fetch.
type JobDetails struct {
	Description  *string
	Requirements *string
}

// RunResult holds one orchestrator invocation. Portals keeps registry order.
type RunResult struct {
	Portals []string
	Jobs    map[string][]RawJob
	Failed  map[string]error
}

func NewRunResult() RunResult {
	return RunResult{Jobs: map[string][]RawJob{}, Failed: map[string]error{}}
}

func (r RunResult) Count(portal string) int {
	return len(r.Jobs[portal])
}

func (r RunResult) Total() int {
	n := 0
	for _, jobs := range r.Jobs {
		n += len(jobs)
	}
	return n
}

type ScrapeRun struct {
	ID           uuid.UUID  `json:"id"`
	SourcePortal string     `json:"source_portal"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       string     `json:"status"`
	JobsFound    int        `json:"jobs_found"`
}

type PortalStat struct {
	Portal      string    `json:"portal"`
	TotalJobs   int       `json:"total_jobs"`
	LastScraped time.Time `json:"last_scraped"`
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
