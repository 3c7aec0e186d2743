package scraper

import "log"

// Portals lists the registered portal ids in run order.
func Portals() []string {
	return []string{ProfessionID, JobsHuID}
}

// Registry builds one scraper per portal. newFetcher is called once per
// portal so each portal paces its own requests.
func Registry(newFetcher func(portal string) PageFetcher, logger *log.Logger) (map[string]Scraper, error) {
	prof, err := NewProfessionScraper(newFetcher(ProfessionID), logger)
	if err != nil {
		return nil, err
	}
	jobs, err := NewJobsHuScraper(newFetcher(JobsHuID), logger)
	if err != nil {
		return nil, err
	}
	return map[string]Scraper{
		ProfessionID: prof,
		JobsHuID:     jobs,
	}, nil
}
