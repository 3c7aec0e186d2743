package scraper

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"fizetesi-info/internal/domain/job"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discard = log.New(io.Discard, "", 0)

type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	urls  []string
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, pageURL)
	body, ok := f.pages[pageURL]
	if !ok {
		return "", &FetchError{URL: pageURL, Attempts: 3, Cause: ErrPageUnavailable}
	}
	return body, nil
}

const professionPage1 = `<html><body>
<div class="job-card">
  <h2 class="job-title">  Senior Go
    fejlesztő </h2>
  <div class="company-name">Példa Kft.</div>
  <span class="location">Budapest</span>
  <span class="salary">800-1000 ezer Ft/hó</span>
  <a class="job-link" href="/allas/senior-go-123">Részletek</a>
</div>
<div class="job-card">
  <div class="company-name">No Title Zrt.</div>
</div>
<div class="job-card">
  <h2 class="job-title">Raktáros</h2>
  <a class="job-link" href="https://partner.example.com/job/9">Részletek</a>
</div>
</body></html>`

const professionPage3 = `<html><body>
<div class="job-card"><h2 class="job-title">Könyvelő</h2><span class="salary">megegyezés szerint</span></div>
</body></html>`

func newProfession(t *testing.T, f PageFetcher) *ProfessionScraper {
	t.Helper()
	s, err := NewProfessionScraper(f, discard)
	require.NoError(t, err)
	return s
}

func TestProfessionScraper_ScrapeSkipsFailedPagesAndUntitledListings(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://www.profession.hu/allasok?page=1": professionPage1,
		"https://www.profession.hu/allasok?page=3": professionPage3,
	}}
	s := newProfession(t, f)

	jobs, err := s.Scrape(context.Background(), 3, "")
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	assert.Equal(t, []string{
		"https://www.profession.hu/allasok?page=1",
		"https://www.profession.hu/allasok?page=2",
		"https://www.profession.hu/allasok?page=3",
	}, f.urls)

	first := jobs[0]
	assert.Equal(t, "Senior Go fejlesztő", first.Title)
	require.NotNil(t, first.Company)
	assert.Equal(t, "Példa Kft.", *first.Company)
	require.NotNil(t, first.Location)
	assert.Equal(t, "Budapest", *first.Location)
	require.NotNil(t, first.SalaryMin)
	require.NotNil(t, first.SalaryMax)
	assert.Equal(t, 800000, *first.SalaryMin)
	assert.Equal(t, 1000000, *first.SalaryMax)
	assert.Equal(t, "HUF", first.SalaryCurrency)
	assert.Equal(t, job.PeriodMonthly, first.SalaryPeriod)
	require.NotNil(t, first.SalaryText)
	assert.Equal(t, "800-1000 ezer Ft/hó", *first.SalaryText)
	require.NotNil(t, first.SourceURL)
	assert.Equal(t, "https://www.profession.hu/allas/senior-go-123", *first.SourceURL)
	assert.Equal(t, "profession.hu", first.SourcePortal)
	assert.Nil(t, first.Description)
	assert.NotNil(t, first.Skills)
	assert.Empty(t, first.Skills)
	assert.False(t, first.Verified)

	second := jobs[1]
	assert.Equal(t, "Raktáros", second.Title)
	assert.Nil(t, second.Company)
	assert.Nil(t, second.SalaryMin)
	assert.Nil(t, second.SalaryText)
	require.NotNil(t, second.SourceURL)
	assert.Equal(t, "https://partner.example.com/job/9", *second.SourceURL)

	third := jobs[2]
	assert.Equal(t, "Könyvelő", third.Title)
	assert.Nil(t, third.SalaryMin)
	assert.Nil(t, third.SalaryMax)
	assert.Equal(t, job.PeriodMonthly, third.SalaryPeriod)
	require.NotNil(t, third.SalaryText)
}

func TestProfessionScraper_ListingWithoutTitleYieldsNothing(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://www.profession.hu/allasok?page=1": `<div class="job-card"><span class="salary">500 ezer Ft/hó</span></div>`,
	}}
	jobs, err := newProfession(t, f).Scrape(context.Background(), 1, "")
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestProfessionScraper_CategoryIsAppended(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	_, err := newProfession(t, f).Scrape(context.Background(), 1, "it fejlesztés")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://www.profession.hu/allasok?page=1&category=it+fejleszt%C3%A9s"}, f.urls)
}

func TestProfessionScraper_NoPages(t *testing.T) {
	f := &fakeFetcher{}
	jobs, err := newProfession(t, f).Scrape(context.Background(), 0, "")
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
	assert.Empty(t, f.urls)
}

func TestProfessionScraper_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{}
	jobs, err := newProfession(t, f).Scrape(ctx, 5, "")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, jobs)
	assert.Empty(t, f.urls)
}

func TestProfessionScraper_ParseJobDirect(t *testing.T) {
	doc := ParseDocument(`<div class="job-card"><h2 class="job-title">Tesztelő</h2><a class="job-link" href="allas/1">x</a></div>`)
	j, ok := newProfession(t, &fakeFetcher{}).ParseJob(doc.Find("div.job-card").First())
	require.True(t, ok)
	require.NotNil(t, j.SourceURL)
	assert.Equal(t, "https://www.profession.hu/allas/1", *j.SourceURL)

	_, ok = newProfession(t, &fakeFetcher{}).ParseJob(doc.Find("span.none"))
	assert.False(t, ok)
}

func TestProfessionScraper_ScrapeJobDetails(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://www.profession.hu/allas/1": `<html><body>
			<div class="job-description">  Go szolgáltatások
			fejlesztése </div>
			<div class="requirements">3+ év tapasztalat</div></body></html>`,
	}}
	s := newProfession(t, f)

	d, ok := s.ScrapeJobDetails(context.Background(), "https://www.profession.hu/allas/1")
	require.True(t, ok)
	require.NotNil(t, d.Description)
	assert.Equal(t, "Go szolgáltatások fejlesztése", *d.Description)
	require.NotNil(t, d.Requirements)
	assert.Equal(t, "3+ év tapasztalat", *d.Requirements)

	d, ok = s.ScrapeJobDetails(context.Background(), "https://www.profession.hu/allas/404")
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestJobsHuScraper_UsesItsOwnSelectors(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://www.jobs.hu/allasok?page=1": `<html><body>
			<article class="job-listing">
				<h3 class="job-title">Ügyfélszolgálati munkatárs</h3>
				<div class="employer">Call Kft.</div>
				<span class="city">Debrecen</span>
				<div class="salary-info">350 ezer Ft</div>
				<a class="job-link" href="/allas/42">Megnézem</a>
			</article>
			<div class="job-card"><h2 class="job-title">Wrong portal markup</h2></div>
		</body></html>`,
	}}
	s, err := NewJobsHuScraper(f, discard)
	require.NoError(t, err)
	assert.Equal(t, "jobs", s.Name())

	jobs, err := s.Scrape(context.Background(), 1, "")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "Ügyfélszolgálati munkatárs", j.Title)
	assert.Equal(t, "Call Kft.", *j.Company)
	assert.Equal(t, "Debrecen", *j.Location)
	assert.Equal(t, 350000, *j.SalaryMin)
	assert.Equal(t, 350000, *j.SalaryMax)
	assert.Equal(t, job.PeriodYearly, j.SalaryPeriod)
	assert.Equal(t, "https://www.jobs.hu/allas/42", *j.SourceURL)
	assert.Equal(t, "jobs.hu", j.SourcePortal)
}

func TestListingScraper_AgainstHTTPServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/allasok" || r.URL.Query().Get("page") != "1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(professionPage1))
	}))
	defer srv.Close()

	target := ProfessionTarget()
	target.BaseURL = srv.URL
	f, _ := newTestFetcher(DefaultFetcherConfig())
	s, err := NewProfessionScraperWithTarget(target, f, discard)
	require.NoError(t, err)

	jobs, err := s.Scrape(context.Background(), 2, "")
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.True(t, strings.HasPrefix(*jobs[0].SourceURL, srv.URL+"/allas/"))
}

func TestNewListingScraper_Validation(t *testing.T) {
	target := ProfessionTarget()
	target.BaseURL = "/relative"
	_, err := NewProfessionScraperWithTarget(target, &fakeFetcher{}, discard)
	assert.Error(t, err)

	target = ProfessionTarget()
	target.ListingSelector = ""
	_, err = NewProfessionScraperWithTarget(target, &fakeFetcher{}, discard)
	assert.Error(t, err)

	_, err = NewProfessionScraper(nil, discard)
	assert.Error(t, err)
}

func TestParseDocument_NeverNil(t *testing.T) {
	for _, in := range []string{"", "not html at all", "<div><span>unclosed"} {
		doc := ParseDocument(in)
		require.NotNil(t, doc)
		assert.Equal(t, 0, doc.Find("div.job-card").Length())
	}
	assert.Equal(t, 0, emptyDocument().Find("*").Length())
}

func TestRegistry(t *testing.T) {
	var asked []string
	reg, err := Registry(func(portal string) PageFetcher {
		asked = append(asked, portal)
		return &fakeFetcher{}
	}, discard)
	require.NoError(t, err)

	assert.Equal(t, Portals(), asked)
	require.Len(t, reg, 2)
	for _, id := range Portals() {
		s, ok := reg[id]
		require.True(t, ok, id)
		assert.Equal(t, id, s.Name())
		_, detail := s.(DetailScraper)
		assert.True(t, detail, id)
	}

}
