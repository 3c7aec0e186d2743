package scraper

import "log"

const ProfessionID = "profession"

func ProfessionTarget() Target {
	return Target{
		Name:       ProfessionID,
		PortalName: "profession.hu",
		BaseURL:    "https://www.profession.hu",
		SearchPath: "/allasok",

		ListingSelector:  "div.job-card",
		TitleSelector:    "h2.job-title",
		CompanySelector:  "div.company-name",
		LocationSelector: "span.location",
		SalarySelector:   "span.salary",
		LinkSelector:     "a.job-link",

		DescriptionSelector:  "div.job-description",
		RequirementsSelector: "div.requirements",
	}
}

type ProfessionScraper struct {
	*listingScraper
}

func NewProfessionScraper(fetcher PageFetcher, logger *log.Logger) (*ProfessionScraper, error) {
	return NewProfessionScraperWithTarget(ProfessionTarget(), fetcher, logger)
}

// NewProfessionScraperWithTarget lets tests point the scraper at a local server.
func NewProfessionScraperWithTarget(t Target, fetcher PageFetcher, logger *log.Logger) (*ProfessionScraper, error) {
	s, err := newListingScraper(t, fetcher, logger)
	if err != nil {
		return nil, err
	}
	return &ProfessionScraper{listingScraper: s}, nil
}
