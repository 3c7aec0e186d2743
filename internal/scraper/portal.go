package scraper

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"fizetesi-info/internal/domain/job"
	"fizetesi-info/internal/normalize"

	"github.com/PuerkitoBio/goquery"
)

// Scraper is implemented by every portal.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context, maxPages int, category string) ([]job.RawJob, error)
	ParseJob(sel *goquery.Selection) (job.RawJob, bool)
}

// DetailScraper is implemented by portals that can fetch a posting page.
type DetailScraper interface {
	ScrapeJobDetails(ctx context.Context, jobURL string) (*job.JobDetails, bool)
}

type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (string, error)
}

// Target describes where a portal keeps its listings and which selectors
// pick the fields of one listing element.
type Target struct {
	Name       string
	PortalName string
	BaseURL    string
	SearchPath string

	ListingSelector  string
	TitleSelector    string
	CompanySelector  string
	LocationSelector string
	SalarySelector   string
	LinkSelector     string

	DescriptionSelector  string
	RequirementsSelector string
}

type listingScraper struct {
	target  Target
	base    *url.URL
	fetcher PageFetcher
	logger  *log.Logger
}

func newListingScraper(t Target, fetcher PageFetcher, logger *log.Logger) (*listingScraper, error) {
	if logger == nil {
		logger = log.Default()
	}
	base, err := url.Parse(strings.TrimSpace(t.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("portal %s: base url: %w", t.Name, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("portal %s: base url is not absolute: %q", t.Name, t.BaseURL)
	}
	if strings.TrimSpace(t.ListingSelector) == "" || strings.TrimSpace(t.TitleSelector) == "" {
		return nil, fmt.Errorf("portal %s: listing and title selectors are required", t.Name)
	}
	if fetcher == nil {
		return nil, fmt.Errorf("portal %s: nil fetcher", t.Name)
	}
	return &listingScraper{target: t, base: base, fetcher: fetcher, logger: logger}, nil
}

func (s *listingScraper) Name() string { return s.target.Name }

func (s *listingScraper) pageURL(page int, category string) string {
	search := s.base.ResolveReference(&url.URL{Path: s.target.SearchPath})
	u := fmt.Sprintf("%s?page=%d", search.String(), page)
	if category = strings.TrimSpace(category); category != "" {
		u += "&category=" + url.QueryEscape(category)
	}
	return u
}

// Scrape walks pages 1..maxPages. A page that cannot be fetched is logged
// and skipped. Records keep page order, then listing order.
func (s *listingScraper) Scrape(ctx context.Context, maxPages int, category string) ([]job.RawJob, error) {
	out := make([]job.RawJob, 0)
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		s.logger.Printf("scraper=%s page=%d/%d status=start", s.target.Name, page, maxPages)

		body, err := s.fetcher.FetchPage(ctx, s.pageURL(page, category))
		if err != nil {
			s.logger.Printf("scraper=%s page=%d level=warn status=fetch_failed err=%v", s.target.Name, page, err)
			continue
		}

		doc := ParseDocument(body)
		listings := doc.Find(s.target.ListingSelector)
		listings.Each(func(_ int, sel *goquery.Selection) {
			if j, ok := s.ParseJob(sel); ok {
				out = append(out, j)
			}
		})
		s.logger.Printf("scraper=%s page=%d status=done listings=%d", s.target.Name, page, listings.Length())
	}
	s.logger.Printf("scraper=%s status=finished jobs=%d", s.target.Name, len(out))
	return out, nil
}

// ParseJob extracts one record. A listing without a title is rejected.
func (s *listingScraper) ParseJob(sel *goquery.Selection) (job.RawJob, bool) {
	title := selText(sel, s.target.TitleSelector)
	if title == "" {
		s.logger.Printf("scraper=%s level=warn status=skipped reason=missing_title", s.target.Name)
		return job.RawJob{}, false
	}

	j := job.RawJob{
		Title:          title,
		Company:        normalize.CleanTextPtr(selText(sel, s.target.CompanySelector)),
		Location:       normalize.CleanTextPtr(selText(sel, s.target.LocationSelector)),
		SalaryCurrency: job.DefaultCurrency,
		SalaryPeriod:   job.PeriodMonthly,
		SourcePortal:   s.target.PortalName,
		Skills:         []string{},
	}

	if text := selText(sel, s.target.SalarySelector); text != "" {
		j.SalaryText = &text
		normalize.Salary(text).Apply(&j)
	}
	if href, ok := selAttr(sel, s.target.LinkSelector, "href"); ok {
		if abs := s.resolve(href); abs != "" {
			j.SourceURL = &abs
		}
	}
	return j, true
}

func (s *listingScraper) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return s.base.ResolveReference(ref).String()
}

// ScrapeJobDetails fetches a posting page and reads its description and
// requirements blocks.
func (s *listingScraper) ScrapeJobDetails(ctx context.Context, jobURL string) (*job.JobDetails, bool) {
	if s.target.DescriptionSelector == "" && s.target.RequirementsSelector == "" {
		return nil, false
	}
	body, err := s.fetcher.FetchPage(ctx, s.resolve(jobURL))
	if err != nil {
		s.logger.Printf("scraper=%s url=%s level=warn status=detail_failed err=%v", s.target.Name, jobURL, err)
		return nil, false
	}
	doc := ParseDocument(body).Selection
	return &job.JobDetails{
		Description:  normalize.CleanTextPtr(selText(doc, s.target.DescriptionSelector)),
		Requirements: normalize.CleanTextPtr(selText(doc, s.target.RequirementsSelector)),
	}, true
}
