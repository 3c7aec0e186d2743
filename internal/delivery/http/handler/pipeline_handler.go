package handler

import (
	"errors"
	"log"
	"time"

	"fizetesi-info/internal/delivery/http/dto"
	"fizetesi-info/internal/delivery/http/middleware"
	"fizetesi-info/internal/pkg/response"
	"fizetesi-info/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type PipelineHandler struct {
	status  usecase.PipelineStatusUsecase
	trigger usecase.PipelineUsecase
	log     *log.Logger
}

func NewPipelineHandler(status usecase.PipelineStatusUsecase, trigger usecase.PipelineUsecase, logger *log.Logger) *PipelineHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &PipelineHandler{status: status, trigger: trigger, log: logger}
}

func (h *PipelineHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/pipeline/status", h.GetStatus)
	r.Post("/pipeline/run", h.Run)
}

func (h *PipelineHandler) GetStatus(c fiber.Ctx) error {
	start := time.Now()
	data, err := h.status.GetStatus(c.Context())
	if err != nil {
		h.log.Printf("http_request method=%s path=%s status=error duration=%s err=%v", c.Method(), c.Path(), time.Since(start), err)
		return middleware.NewAppError(fiber.StatusInternalServerError, "failed to get pipeline status", nil, err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, data)
}

// Run starts a pipeline pass in the background and answers 202.
func (h *PipelineHandler) Run(c fiber.Ctx) error {
	var req dto.PipelineRunRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return middleware.NewAppError(fiber.StatusBadRequest, "invalid request body", nil, err)
		}
	}

	data, err := h.trigger.Trigger(req)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAlreadyRunning):
			return middleware.NewAppError(fiber.StatusConflict, "pipeline already running", nil, err)
		case errors.Is(err, usecase.ErrInvalidInput):
			return middleware.NewAppError(fiber.StatusBadRequest, err.Error(), nil, err)
		default:
			return middleware.NewAppError(fiber.StatusInternalServerError, response.MessageInternalServerError, nil, err)
		}
	}

	h.log.Printf("http_request method=%s path=%s status=accepted portals=%v", c.Method(), c.Path(), data.Portals)
	return response.Success(c, fiber.StatusAccepted, "pipeline started", data)
}
