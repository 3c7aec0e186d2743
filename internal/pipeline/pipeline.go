package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
	"time"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/service"

	"github.com/google/uuid"
)

var ErrAlreadyRunning = errors.New("pipeline already running")

type Orchestrator interface {
	Run(ctx context.Context, portals []string, maxPages int, category string) job.RunResult
	Portals() []string
}

type Enricher interface {
	Enrich(ctx context.Context, raw job.RawJob) job.EnrichedJob
}

type JobStore interface {
	SaveJobs(ctx context.Context, jobs []job.EnrichedJob) (int, error)
}

type RunRecorder interface {
	StartRun(ctx context.Context, portal string) (uuid.UUID, error)
	FinishRun(ctx context.Context, runID uuid.UUID, status string, jobsFound int) error
	Log(ctx context.Context, runID uuid.UUID, level, message string) error
}

type SeenFilter interface {
	MarkIfNew(ctx context.Context, url string) bool
}

// DetailSource fetches posting pages by portal name.
type DetailSource interface {
	JobDetails(ctx context.Context, portal, jobURL string) (*job.JobDetails, bool)
}

type Deps struct {
	Orchestrator Orchestrator
	Enricher     Enricher
	Store        JobStore
	Runs         RunRecorder
	Seen         SeenFilter
	Details      DetailSource
}

type Params struct {
	Portal   string
	MaxPages int
	Category string
	Enrich   bool
	Persist  bool
	Workers  int
	// Details fetches each posting page before enrichment so the
	// description stages have text to work on.
	Details bool
}

type PortalSummary struct {
	Portal   string `json:"portal"`
	Scraped  int    `json:"scraped"`
	Enriched int    `json:"enriched"`
	Skipped  int    `json:"skipped"`
	Saved    int    `json:"saved"`
	Error    string `json:"error,omitempty"`
}

type Summary struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Portals    []PortalSummary `json:"portals"`
	Total      int             `json:"total"`
	Saved      int             `json:"saved"`

	Jobs map[string][]job.EnrichedJob `json:"-"`
}

// Status is a snapshot for the HTTP surface.
type Status struct {
	Running bool     `json:"running"`
	Last    *Summary `json:"last,omitempty"`
}

// Pipeline scrapes, enriches and stores jobs. Only one run is active at a
// time.
type Pipeline struct {
	deps Deps
	log  *log.Logger

	mu      sync.Mutex
	running bool
	last    *Summary
}

func New(deps Deps, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{deps: deps, log: logger}
}

// Portals lists the portals a full run covers, in run order.
func (p *Pipeline) Portals() []string {
	if p == nil || p.deps.Orchestrator == nil {
		return nil
	}
	return p.deps.Orchestrator.Portals()
}

func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{Running: p.running}
	if p.last != nil {
		cp := *p.last
		cp.Portals = append([]PortalSummary(nil), p.last.Portals...)
		st.Last = &cp
	}
	return st
}

func (p *Pipeline) begin() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return false
	}
	p.running = true
	return true
}

func (p *Pipeline) end(s Summary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.last = &s
}

// Run executes one pass. It fails only for an unknown portal, a
// concurrent run or a missing orchestrator; portal, enrichment and
// storage problems are reported in the Summary.
func (p *Pipeline) Run(ctx context.Context, params Params) (Summary, error) {
	portals, err := p.prepare(params)
	if err != nil {
		return Summary{}, err
	}
	return p.run(ctx, portals, params), nil
}

// Start validates params and claims the run slot synchronously, then runs
// in the background. The channel receives the Summary and is closed.
func (p *Pipeline) Start(ctx context.Context, params Params) (<-chan Summary, error) {
	portals, err := p.prepare(params)
	if err != nil {
		return nil, err
	}
	ch := make(chan Summary, 1)
	go func() {
		defer close(ch)
		ch <- p.run(ctx, portals, params)
	}()
	return ch, nil
}

// prepare resolves the portal list and claims the run slot.
func (p *Pipeline) prepare(params Params) ([]string, error) {
	if p == nil || p.deps.Orchestrator == nil {
		return nil, errors.New("pipeline: nil orchestrator")
	}
	portals := p.deps.Orchestrator.Portals()
	if name := strings.TrimSpace(params.Portal); name != "" {
		if !slices.Contains(portals, name) {
			return nil, fmt.Errorf("%w: %q", service.ErrUnknownPortal, name)
		}
		portals = []string{name}
	}
	if !p.begin() {
		return nil, ErrAlreadyRunning
	}
	return portals, nil
}

func (p *Pipeline) run(ctx context.Context, portals []string, params Params) (sum Summary) {
	sum = Summary{StartedAt: time.Now().UTC(), Jobs: map[string][]job.EnrichedJob{}}
	defer func() {
		sum.FinishedAt = time.Now().UTC()
		p.end(sum)
	}()

	p.log.Printf("pipeline=scrape status=started portals=%s max_pages=%d enrich=%t details=%t persist=%t", strings.Join(portals, ","), params.MaxPages, params.Enrich, params.Details, params.Persist)

	runIDs := map[string]uuid.UUID{}
	if params.Persist && p.deps.Runs != nil {
		for _, name := range portals {
			id, err := p.deps.Runs.StartRun(ctx, name)
			if err != nil {
				p.log.Printf("pipeline=scrape portal=%s step=start_run status=error err=%v", name, err)
				continue
			}
			runIDs[name] = id
		}
	}

	res := p.deps.Orchestrator.Run(ctx, portals, params.MaxPages, params.Category)

	for _, name := range res.Portals {
		ps := PortalSummary{Portal: name, Scraped: res.Count(name)}
		if err := res.Failed[name]; err != nil {
			ps.Error = err.Error()
		}

		enriched, done, skipped := p.enrichAll(ctx, name, res.Jobs[name], params)
		ps.Enriched = done
		ps.Skipped = skipped
		sum.Jobs[name] = enriched

		if params.Persist && p.deps.Store != nil && len(enriched) > 0 {
			saved, err := p.deps.Store.SaveJobs(ctx, enriched)
			ps.Saved = saved
			if err != nil {
				p.log.Printf("pipeline=scrape portal=%s step=persist status=error err=%v", name, err)
				if ps.Error == "" {
					ps.Error = err.Error()
				}
			}
		}

		p.finishRun(ctx, runIDs[name], ps)
		p.log.Printf("pipeline=scrape portal=%s scraped=%d enriched=%d skipped=%d saved=%d", name, ps.Scraped, ps.Enriched, ps.Skipped, ps.Saved)

		sum.Portals = append(sum.Portals, ps)
		sum.Total += ps.Scraped
		sum.Saved += ps.Saved
	}

	p.log.Printf("pipeline=scrape status=finished total=%d saved=%d duration=%s", sum.Total, sum.Saved, time.Since(sum.StartedAt))
	return sum
}

func (p *Pipeline) finishRun(ctx context.Context, runID uuid.UUID, ps PortalSummary) {
	if p.deps.Runs == nil || runID == uuid.Nil {
		return
	}
	status := "finished"
	if ps.Error != "" {
		status = "failed"
		_ = p.deps.Runs.Log(ctx, runID, "error", ps.Error)
	}
	_ = p.deps.Runs.Log(ctx, runID, "info", fmt.Sprintf("scraped=%d enriched=%d skipped=%d saved=%d", ps.Scraped, ps.Enriched, ps.Skipped, ps.Saved))
	if err := p.deps.Runs.FinishRun(context.WithoutCancel(ctx), runID, status, ps.Scraped); err != nil {
		p.log.Printf("pipeline=scrape portal=%s step=finish_run status=error err=%v", ps.Portal, err)
	}
}

// enrichAll returns one EnrichedJob per input, in input order, plus the
// number enriched and skipped. Records whose source URL was enriched
// recently pass through unenriched and without a detail fetch.
func (p *Pipeline) enrichAll(ctx context.Context, portal string, jobs []job.RawJob, params Params) ([]job.EnrichedJob, int, int) {
	out := make([]job.EnrichedJob, len(jobs))
	for i, j := range jobs {
		out[i] = passthrough(j)
	}
	if len(jobs) == 0 {
		return out, 0, 0
	}
	if !params.Enrich || p.deps.Enricher == nil {
		if params.Details {
			for i, j := range jobs {
				if ctx.Err() != nil {
					break
				}
				out[i] = passthrough(p.withDetails(ctx, portal, j))
			}
		}
		return out, 0, 0
	}

	todo := make([]int, 0, len(jobs))
	skipped := 0
	for i, j := range jobs {
		if p.deps.Seen != nil && j.SourceURL != nil && !p.deps.Seen.MarkIfNew(ctx, *j.SourceURL) {
			skipped++
			continue
		}
		todo = append(todo, i)
	}

	workers := params.Workers
	if workers <= 0 {
		workers = 1
	}
	pool := NewWorkerPool(workers, workers*2)
	results := pool.Run(ctx)

	go func() {
		defer pool.Close()
		for _, i := range todo {
			err := pool.Submit(ctx, i, func(ctx context.Context) (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("enrich panicked: %v", r)
					}
				}()
				raw := jobs[i]
				if params.Details {
					raw = p.withDetails(ctx, portal, raw)
				}
				out[i] = p.deps.Enricher.Enrich(ctx, raw)
				return nil
			})
			if err != nil {
				return
			}
		}
	}()

	done := 0
	for r := range results {
		if r.Err != nil {
			p.log.Printf("pipeline=enrich index=%d status=error err=%v", r.Index, r.Err)
			continue
		}
		done++
	}
	return out, done, skipped
}

// withDetails returns a copy of j with the posting page's description and
// requirements. Records that already carry a description are left alone.
func (p *Pipeline) withDetails(ctx context.Context, portal string, j job.RawJob) job.RawJob {
	if p.deps.Details == nil || j.SourceURL == nil || strings.TrimSpace(*j.SourceURL) == "" {
		return j
	}
	if j.Description != nil && strings.TrimSpace(*j.Description) != "" {
		return j
	}
	d, ok := p.deps.Details.JobDetails(ctx, portal, *j.SourceURL)
	if !ok || d == nil {
		return j
	}
	var parts []string
	for _, s := range []*string{d.Description, d.Requirements} {
		if s != nil && strings.TrimSpace(*s) != "" {
			parts = append(parts, strings.TrimSpace(*s))
		}
	}
	if len(parts) == 0 {
		return j
	}
	out := j.Clone()
	text := strings.Join(parts, "\n\n")
	out.Description = &text
	return out
}

func passthrough(j job.RawJob) job.EnrichedJob {
	return job.EnrichedJob{
		RawJob:          j.Clone(),
		Category:        job.CategoryOther,
		ExperienceLevel: job.DefaultLevel,
	}
}
