package transport

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ErrorHandler renders framework and unhandled errors in the same envelope
// as pipeline results. Only fiber errors expose their text to the caller.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "internal error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			code = fiberErr.Code
			message = fiberErr.Message
		}

		fields := []zap.Field{
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("request error", fields...)
		} else {
			logger.Debug("request error", fields...)
		}

		return c.Status(code).JSON(errorResponse{
			Success: false,
			Message: message,
		})
	}
}
