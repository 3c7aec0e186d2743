package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fizetesi-info/internal/delivery/http/dto"
	"fizetesi-info/internal/pipeline"
	"fizetesi-info/internal/service"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrAlreadyRunning = errors.New("pipeline already running")
)

const (
	DefaultPagesAll    = 3
	DefaultPagesSingle = 5
	MaxPagesPerTrigger = 50
)

type PipelineRunner interface {
	Start(ctx context.Context, params pipeline.Params) (<-chan pipeline.Summary, error)
	Status() pipeline.Status
	Portals() []string
}

type PipelineUsecase interface {
	Trigger(req dto.PipelineRunRequest) (dto.PipelineRunResponseData, error)
}

// Pipeline starts background runs. Runs are bound to base, usually the
// server lifetime, not to the triggering request.
type Pipeline struct {
	runner   PipelineRunner
	base     context.Context
	defaults pipeline.Params
	log      *log.Logger
}

func NewPipelineUsecase(base context.Context, runner PipelineRunner, defaults pipeline.Params, logger *log.Logger) *Pipeline {
	if base == nil {
		base = context.Background()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Pipeline{runner: runner, base: base, defaults: defaults, log: logger}
}

func (u *Pipeline) Trigger(req dto.PipelineRunRequest) (dto.PipelineRunResponseData, error) {
	if u == nil || u.runner == nil {
		return dto.PipelineRunResponseData{}, ErrInternal
	}
	if req.MaxPages < 0 || req.MaxPages > MaxPagesPerTrigger {
		return dto.PipelineRunResponseData{}, fmt.Errorf("%w: max_pages must be between 0 and %d", ErrInvalidInput, MaxPagesPerTrigger)
	}

	params := u.defaults
	params.Portal = strings.TrimSpace(req.Portal)
	params.Category = strings.TrimSpace(req.Category)
	params.MaxPages = req.MaxPages
	if params.MaxPages == 0 {
		params.MaxPages = DefaultPagesAll
		if params.Portal != "" {
			params.MaxPages = DefaultPagesSingle
		}
	}
	if req.Enrich != nil {
		params.Enrich = *req.Enrich
	}
	if req.Persist != nil {
		params.Persist = *req.Persist
	}
	if req.Details != nil {
		params.Details = *req.Details
	}

	done, err := u.runner.Start(u.base, params)
	switch {
	case errors.Is(err, pipeline.ErrAlreadyRunning):
		return dto.PipelineRunResponseData{}, ErrAlreadyRunning
	case errors.Is(err, service.ErrUnknownPortal):
		return dto.PipelineRunResponseData{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	case err != nil:
		return dto.PipelineRunResponseData{}, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	go func() {
		sum := <-done
		u.log.Printf("pipeline_trigger status=finished total=%d saved=%d", sum.Total, sum.Saved)
	}()

	portals := u.runner.Portals()
	if params.Portal != "" {
		portals = []string{params.Portal}
	}
	u.log.Printf("pipeline_trigger status=started portals=%s max_pages=%d", strings.Join(portals, ","), params.MaxPages)
	return dto.PipelineRunResponseData{
		Portals:  portals,
		MaxPages: params.MaxPages,
		Category: params.Category,
		Enrich:   params.Enrich,
		Persist:  params.Persist,
		Details:  params.Details,
	}, nil
}
