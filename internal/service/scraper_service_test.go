package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"testing"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/scraper"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScraper struct {
	name     string
	jobs     []job.RawJob
	err      error
	panicMsg string
	calls    atomic.Int32
	category string
}

func (s *stubScraper) Name() string { return s.name }

func (s *stubScraper) Scrape(_ context.Context, maxPages int, category string) ([]job.RawJob, error) {
	s.calls.Add(1)
	s.category = category
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return s.jobs, s.err
	}
	return s.jobs, nil
}

func (s *stubScraper) ParseJob(*goquery.Selection) (job.RawJob, bool) { return job.RawJob{}, false }

func threeJobs(portal string) []job.RawJob {
	return []job.RawJob{
		{Title: "a", SourcePortal: portal, Skills: []string{}},
		{Title: "b", SourcePortal: portal, Skills: []string{}},
		{Title: "c", SourcePortal: portal, Skills: []string{}},
	}
}

func newService(opts Options, scrapers ...*stubScraper) *ScraperService {
	m := map[string]scraper.Scraper{}
	order := make([]string, 0, len(scrapers))
	for _, s := range scrapers {
		m[s.name] = s
		order = append(order, s.name)
	}
	return NewScraperService(m, order, opts, log.New(io.Discard, "", 0))
}

func TestRunAll_IsolatesFailingPortal(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		failing := &stubScraper{name: "broken", err: errors.New("connection refused"), jobs: []job.RawJob{{Title: "partial"}}}
		ok := &stubScraper{name: "ok", jobs: threeJobs("ok")}
		svc := newService(Options{Parallel: parallel}, failing, ok)

		res := svc.RunAll(context.Background(), 2)

		assert.Equal(t, []string{"broken", "ok"}, res.Portals)
		require.Contains(t, res.Jobs, "broken")
		assert.NotNil(t, res.Jobs["broken"])
		assert.Empty(t, res.Jobs["broken"])
		assert.Len(t, res.Jobs["ok"], 3)
		assert.Equal(t, 3, res.Total())
		assert.Error(t, res.Failed["broken"])
		assert.NotContains(t, res.Failed, "ok")
	}
}

func TestRun_CancelledPortalKeepsScrapedRecords(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		var buf bytes.Buffer
		cut := &stubScraper{name: "cut", err: context.Canceled, jobs: threeJobs("cut")[:2]}
		late := &stubScraper{name: "late", err: fmt.Errorf("page 3: %w", context.DeadlineExceeded), jobs: threeJobs("late")[:1]}
		m := map[string]scraper.Scraper{"cut": cut, "late": late}
		svc := NewScraperService(m, []string{"cut", "late"}, Options{Parallel: parallel}, log.New(&buf, "", 0))

		res := svc.RunAll(context.Background(), 3)

		assert.Len(t, res.Jobs["cut"], 2)
		assert.Len(t, res.Jobs["late"], 1)
		assert.ErrorIs(t, res.Failed["cut"], context.Canceled)
		assert.ErrorIs(t, res.Failed["late"], context.DeadlineExceeded)
		assert.Equal(t, 3, res.Total())
		assert.Contains(t, buf.String(), "scrape portal=cut level=error status=failed jobs=2")
	}
}

func TestRun_LogsSummary(t *testing.T) {
	var buf bytes.Buffer
	m := map[string]scraper.Scraper{
		"ok":     &stubScraper{name: "ok", jobs: threeJobs("ok")},
		"broken": &stubScraper{name: "broken", err: errors.New("connection refused")},
	}
	svc := NewScraperService(m, []string{"ok", "broken"}, Options{}, log.New(&buf, "", 0))

	_ = svc.Run(context.Background(), []string{"ok", "broken"}, 1, "")

	out := buf.String()
	assert.Contains(t, out, "scrape summary portal=ok jobs=3")
	assert.Contains(t, out, "scrape summary portal=broken jobs=0")
	assert.Contains(t, out, "scrape summary total_jobs=3 failed_portals=1")
}

type detailStub struct {
	stubScraper
	gotURL string
}

func (d *detailStub) ScrapeJobDetails(_ context.Context, jobURL string) (*job.JobDetails, bool) {
	d.gotURL = jobURL
	desc := "Go fejlesztés"
	return &job.JobDetails{Description: &desc}, true
}

func TestJobDetails_DelegatesToDetailScraper(t *testing.T) {
	ds := &detailStub{stubScraper: stubScraper{name: "detail"}}
	m := map[string]scraper.Scraper{"detail": ds, "plain": &stubScraper{name: "plain"}}
	svc := NewScraperService(m, nil, Options{}, log.New(io.Discard, "", 0))

	d, ok := svc.JobDetails(context.Background(), "detail", "/allas/1")
	require.True(t, ok)
	assert.Equal(t, "Go fejlesztés", *d.Description)
	assert.Equal(t, "/allas/1", ds.gotURL)

	_, ok = svc.JobDetails(context.Background(), "plain", "/allas/1")
	assert.False(t, ok)
	_, ok = svc.JobDetails(context.Background(), "nope", "/allas/1")
	assert.False(t, ok)
}

func TestRunAll_RecoversFromPanic(t *testing.T) {
	boom := &stubScraper{name: "boom", panicMsg: "selector exploded"}
	ok := &stubScraper{name: "ok", jobs: threeJobs("ok")}
	svc := newService(Options{}, boom, ok)

	res := svc.RunAll(context.Background(), 1)
	assert.Empty(t, res.Jobs["boom"])
	assert.Len(t, res.Jobs["ok"], 3)
	require.Error(t, res.Failed["boom"])
	assert.Contains(t, res.Failed["boom"].Error(), "selector exploded")
	assert.Equal(t, int32(1), ok.calls.Load())
}

func TestRunSingle(t *testing.T) {
	ok := &stubScraper{name: "ok", jobs: threeJobs("ok")}
	svc := newService(Options{Category: "IT"}, ok)

	jobs := svc.RunSingle(context.Background(), "ok", 5)
	assert.Len(t, jobs, 3)
	assert.Equal(t, "IT", ok.category)

	unknown := svc.RunSingle(context.Background(), "nope", 5)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestRun_UnknownPortalIsReported(t *testing.T) {
	svc := newService(Options{}, &stubScraper{name: "ok"})
	res := svc.Run(context.Background(), []string{"nope"}, 1, "")
	assert.ErrorIs(t, res.Failed["nope"], ErrUnknownPortal)
	assert.Empty(t, res.Jobs["nope"])
}

func TestRun_NilJobsBecomeEmpty(t *testing.T) {
	svc := newService(Options{}, &stubScraper{name: "quiet"})
	res := svc.RunAll(context.Background(), 1)
	assert.NotNil(t, res.Jobs["quiet"])
	assert.Empty(t, res.Failed)
}

func TestNewScraperService_Order(t *testing.T) {
	m := map[string]scraper.Scraper{
		"b": &stubScraper{name: "b"},
		"a": &stubScraper{name: "a"},
		"z": &stubScraper{name: "z"},
	}
	svc := NewScraperService(m, []string{"z", "missing", "z"}, Options{}, nil)
	assert.Equal(t, []string{"z", "a", "b"}, svc.Portals())
}

func TestWithOptions_DoesNotMutateOriginal(t *testing.T) {
	s := &stubScraper{name: "ok"}
	svc := newService(Options{}, s)
	_ = svc.WithOptions(Options{Category: "Sales"}).RunAll(context.Background(), 1)
	assert.Equal(t, "Sales", s.category)

	_ = svc.RunAll(context.Background(), 1)
	assert.Equal(t, "", s.category)
}
