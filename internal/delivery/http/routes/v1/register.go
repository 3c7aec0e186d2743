package v1

import (
	"fizetesi-info/internal/delivery/http/handler"

	"github.com/gofiber/fiber/v3"
)

// Handlers groups the v1 endpoints. A nil handler leaves its routes
// unregistered.
type Handlers struct {
	Pipeline *handler.PipelineHandler
	Jobs     *handler.JobsHandler
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}
	if h.Pipeline != nil {
		h.Pipeline.RegisterRoutes(r)
	}
	if h.Jobs != nil {
		h.Jobs.RegisterRoutes(r)
	}
}
