package handler

import (
	"errors"
	"strconv"
	"time"

	"fizetesi-info/internal/delivery/http/dto"
	"fizetesi-info/internal/delivery/http/middleware"
	"fizetesi-info/internal/pkg/response"
	"fizetesi-info/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobsHandler struct {
	uc usecase.JobListUsecase
}

func NewJobsHandler(uc usecase.JobListUsecase) *JobsHandler {
	return &JobsHandler{uc: uc}
}

func (h *JobsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/jobs", h.HandleListJobs)
}

func (h *JobsHandler) HandleListJobs(c fiber.Ctx) error {
	limit, err := parseQueryIntStrict(c, "limit", 20)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid limit", nil, err)
	}
	offset, err := parseQueryIntStrict(c, "offset", 0)
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, "invalid offset", nil, err)
	}

	items, err := h.uc.ListJobs(c.Context(), usecase.JobListParams{
		Category: c.Query("category"),
		Portal:   c.Query("portal"),
		Level:    c.Query("level"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return mapJobListUsecaseError(err)
	}

	out := make([]dto.JobListResponse, 0, len(items))
	for _, it := range items {
		scraped := ""
		if !it.ScrapedAt.IsZero() {
			scraped = it.ScrapedAt.UTC().Format(time.RFC3339)
		}
		skills := it.Skills
		if skills == nil {
			skills = []string{}
		}
		out = append(out, dto.JobListResponse{
			JobID:           it.ID,
			Title:           it.Title,
			CompanyName:     deref(it.Company),
			Location:        deref(it.Location),
			SalaryMin:       it.SalaryMin,
			SalaryMax:       it.SalaryMax,
			SalaryCurrency:  it.SalaryCurrency,
			SalaryPeriod:    string(it.SalaryPeriod),
			SourceURL:       deref(it.SourceURL),
			SourcePortal:    it.SourcePortal,
			Category:        string(it.Category),
			ExperienceLevel: string(it.ExperienceLevel),
			Skills:          skills,
			ScrapedAt:       scraped,
		})
	}

	return response.Paginated(c, out, response.Page{Limit: limit, Offset: offset, Count: len(out)})
}

func parseQueryIntStrict(c fiber.Ctx, key string, defaultVal int) (int, error) {
	s := c.Query(key)
	if s == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func mapJobListUsecaseError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
	}
}
