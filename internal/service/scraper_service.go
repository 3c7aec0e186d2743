package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/scraper"

	"golang.org/x/sync/errgroup"
)

var ErrUnknownPortal = errors.New("unknown portal")

type Options struct {
	// Parallel runs portals concurrently. Each portal keeps its own
	// fetcher, so pacing stays per portal.
	Parallel bool
	Category string
}

// ScraperService runs portal scrapers and isolates their failures: a
// portal that errors or panics contributes an empty list and never stops
// the others.
type ScraperService struct {
	scrapers map[string]scraper.Scraper
	order    []string
	opts     Options
	logger   *log.Logger
}

// NewScraperService keeps portals in the given order. Registered portals
// missing from order run after it, sorted by name.
func NewScraperService(scrapers map[string]scraper.Scraper, order []string, opts Options, logger *log.Logger) *ScraperService {
	if logger == nil {
		logger = log.Default()
	}
	seen := make(map[string]struct{}, len(scrapers))
	names := make([]string, 0, len(scrapers))
	for _, n := range order {
		if _, ok := scrapers[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	var rest []string
	for n := range scrapers {
		if _, ok := seen[n]; !ok {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)
	names = append(names, rest...)

	return &ScraperService{scrapers: scrapers, order: names, opts: opts, logger: logger}
}

// WithOptions returns a copy of the service using opts.
func (s *ScraperService) WithOptions(opts Options) *ScraperService {
	cp := *s
	cp.opts = opts
	return &cp
}

func (s *ScraperService) Portals() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// RunAll scrapes every registered portal.
func (s *ScraperService) RunAll(ctx context.Context, maxPages int) job.RunResult {
	return s.Run(ctx, s.order, maxPages, s.opts.Category)
}

// RunSingle scrapes one portal. An unknown portal or a failed run gives an
// empty slice; a cancelled run gives the records scraped so far.
func (s *ScraperService) RunSingle(ctx context.Context, portal string, maxPages int) []job.RawJob {
	portal = strings.TrimSpace(portal)
	return s.Run(ctx, []string{portal}, maxPages, s.opts.Category).Jobs[portal]
}

// Run scrapes the named portals with an optional category filter. Every
// name gets an entry in Jobs. A failed portal contributes no records,
// except when it was cancelled: then the pages scraped so far are kept and
// the portal is still listed in Failed.
func (s *ScraperService) Run(ctx context.Context, portals []string, maxPages int, category string) job.RunResult {
	res := job.NewRunResult()
	res.Portals = append(res.Portals, portals...)

	type outcome struct {
		jobs []job.RawJob
		err  error
	}
	outcomes := make([]outcome, len(portals))

	if s.opts.Parallel && len(portals) > 1 {
		var g errgroup.Group
		for i, name := range portals {
			g.Go(func() error {
				jobs, err := s.runPortal(ctx, name, maxPages, category)
				outcomes[i] = outcome{jobs: jobs, err: err}
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, name := range portals {
			jobs, err := s.runPortal(ctx, name, maxPages, category)
			outcomes[i] = outcome{jobs: jobs, err: err}
		}
	}

	for i, name := range portals {
		o := outcomes[i]
		if o.err != nil {
			res.Failed[name] = o.err
			if !cancelled(o.err) {
				o.jobs = nil
			}
		}
		if o.jobs == nil {
			o.jobs = []job.RawJob{}
		}
		res.Jobs[name] = o.jobs
	}
	s.logSummary(res)
	return res
}

func cancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// JobDetails fetches one posting page through the named portal's scraper.
// It reports false for unknown portals and portals without detail support.
func (s *ScraperService) JobDetails(ctx context.Context, portal, jobURL string) (*job.JobDetails, bool) {
	ds, ok := s.scrapers[portal].(scraper.DetailScraper)
	if !ok {
		return nil, false
	}
	return ds.ScrapeJobDetails(ctx, jobURL)
}

func (s *ScraperService) runPortal(ctx context.Context, name string, maxPages int, category string) (jobs []job.RawJob, err error) {
	sc, ok := s.scrapers[name]
	if !ok {
		s.logger.Printf("scrape portal=%s level=error status=unknown", name)
		return nil, fmt.Errorf("%w: %q", ErrUnknownPortal, name)
	}

	start := time.Now()
	s.logger.Printf("scrape portal=%s status=started max_pages=%d", name, maxPages)
	defer func() {
		if r := recover(); r != nil {
			jobs = nil
			err = fmt.Errorf("portal %s panicked: %v", name, r)
		}
		if err != nil {
			s.logger.Printf("scrape portal=%s level=error status=failed jobs=%d duration=%s err=%v", name, len(jobs), time.Since(start), err)
			return
		}
		s.logger.Printf("scrape portal=%s status=finished jobs=%d duration=%s", name, len(jobs), time.Since(start))
	}()

	jobs, err = sc.Scrape(ctx, maxPages, category)
	if jobs == nil {
		jobs = []job.RawJob{}
	}
	return jobs, err
}

func (s *ScraperService) logSummary(res job.RunResult) {
	for _, name := range res.Portals {
		s.logger.Printf("scrape summary portal=%s jobs=%d", name, res.Count(name))
	}
	s.logger.Printf("scrape summary total_jobs=%d failed_portals=%d", res.Total(), len(res.Failed))
}
