package scraper

import "log"

const JobsHuID = "jobs"

func JobsHuTarget() Target {
	return Target{
		Name:       JobsHuID,
		PortalName: "jobs.hu",
		BaseURL:    "https://www.jobs.hu",
		SearchPath: "/allasok",

		ListingSelector:  "article.job-listing",
		TitleSelector:    "h3.job-title",
		CompanySelector:  "div.employer",
		LocationSelector: "span.city",
		SalarySelector:   "div.salary-info",
		LinkSelector:     "a.job-link",

		DescriptionSelector:  "div.job-description",
		RequirementsSelector: "div.requirements",
	}
}

type JobsHuScraper struct {
	*listingScraper
}

func NewJobsHuScraper(fetcher PageFetcher, logger *log.Logger) (*JobsHuScraper, error) {
	return NewJobsHuScraperWithTarget(JobsHuTarget(), fetcher, logger)
}

func NewJobsHuScraperWithTarget(t Target, fetcher PageFetcher, logger *log.Logger) (*JobsHuScraper, error) {
	s, err := newListingScraper(t, fetcher, logger)
	if err != nil {
		return nil, err
	}
	return &JobsHuScraper{listingScraper: s}, nil
}
