package middleware

import (
	"context"
	"errors"
	"log"

	"fizetesi-info/internal/pkg/response"

	"github.com/gofiber/fiber/v3"
)

// AppError carries the HTTP status and public message for a handler
// failure. Cause is logged but never rendered.
type AppError struct {
	StatusCode int
	Message    string
	Data       any
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data any, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct {
	logger *log.Logger
}

func NewErrorMiddleware(logger *log.Logger) *ErrorMiddleware {
	if logger == nil {
		logger = log.Default()
	}
	return &ErrorMiddleware{logger: logger}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.logger.Printf("HTTP panic | rid=%s path=%s panic=%v", RequestID(c), c.Path(), r)
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= 500 {
			m.logger.Printf("HTTP error | rid=%s path=%s status=%d err=%v", RequestID(c), c.Path(), status, err)
		}
		return response.Error(c, status, msg, data)
	}
}

// normalizeError hides messages and payloads of 5xx errors except timeouts.
func normalizeError(err error) (int, string, any) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.StatusCode > 0 {
		if errors.Is(appErr.Cause, context.DeadlineExceeded) {
			return fiber.StatusGatewayTimeout, response.MessageGatewayTimeout, nil
		}
		status := appErr.StatusCode
		if status >= 500 {
			return status, response.DefaultMessage(status), nil
		}
		msg := appErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, appErr.Data
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code > 0 {
		status := fiberErr.Code
		if status >= 500 {
			return status, response.DefaultMessage(status), nil
		}
		msg := fiberErr.Message
		if msg == "" {
			msg = response.DefaultMessage(status)
		}
		return status, msg, nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fiber.StatusGatewayTimeout, response.MessageGatewayTimeout, nil
	}
	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}
