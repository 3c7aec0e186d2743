package dto

import "github.com/google/uuid"

type JobListResponse struct {
	JobID           uuid.UUID `json:"job_id"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"company_name"`
	Location        string    `json:"location"`
	SalaryMin       *int      `json:"salary_min"`
	SalaryMax       *int      `json:"salary_max"`
	SalaryCurrency  string    `json:"salary_currency"`
	SalaryPeriod    string    `json:"salary_period"`
	SourceURL       string    `json:"source_url"`
	SourcePortal    string    `json:"source_portal"`
	Category        string    `json:"category"`
	ExperienceLevel string    `json:"experience_level"`
	Skills          []string  `json:"skills"`
	ScrapedAt       string    `json:"scraped_at"`
}
