package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Logger logs one structured entry per request with request_id, method, path,
// status and latency_ms. Errors returned by the chain are handed to the app's
// ErrorHandler first so the logged status is the one the client receives.
func Logger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		rid, _ := c.Locals(RequestIDLocalKey).(string)
		log.Info("http_request",
			zap.String("request_id", rid),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Float64("latency_ms", float64(time.Since(start).Microseconds())/1000),
		)
		return nil
	}
}
