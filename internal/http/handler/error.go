package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"personapi/internal/apperr"
	"personapi/internal/http/middleware"
)

const (
	MsgPersonNotFound = "Person not found"
	MsgInternal       = "An internal server error occurred"
	MsgInvalidID      = "invalid id"
	MsgMalformedBody  = "malformed request body"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	StatusCode int       `json:"statusCode"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Path       string    `json:"path"`
}

// Translate maps err onto the error envelope. Unexpected errors get a fixed
// message; their detail is only ever logged.
func Translate(err error, path string, now time.Time) ErrorResponse {
	status, msg := classify(err)
	return ErrorResponse{
		StatusCode: status,
		Message:    msg,
		Timestamp:  now.UTC(),
		Path:       path,
	}
}

// classify matches on the apperr kind whenever one is in the chain, even if it
// wraps a *fiber.Error.
func classify(err error) (int, string) {
	var ae *apperr.Error
	var fe *fiber.Error
	if !errors.As(err, &ae) && errors.As(err, &fe) {
		// Fiber's own errors (unknown route, method not allowed, body limit) keep their status.
		if fe.Code >= fiber.StatusInternalServerError {
			return fe.Code, MsgInternal
		}
		return fe.Code, fe.Message
	}

	switch apperr.KindOf(err) {
	case apperr.NotFound:
		if msg := apperr.MessageOf(err); msg != "" {
			return fiber.StatusNotFound, msg
		}
		return fiber.StatusNotFound, MsgPersonNotFound
	case apperr.Duplicate:
		return fiber.StatusConflict, apperr.MessageOf(err)
	case apperr.Validation:
		return fiber.StatusBadRequest, apperr.MessageOf(err)
	default:
		return fiber.StatusInternalServerError, MsgInternal
	}
}

// logKind names the failure kind for logs. Fiber-native errors carry no
// apperr kind, so theirs follows the translated status.
func logKind(err error, status int) apperr.Kind {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	switch {
	case status == fiber.StatusNotFound:
		return apperr.NotFound
	case status == fiber.StatusConflict:
		return apperr.Duplicate
	case status >= 400 && status < 500:
		return apperr.Validation
	default:
		return apperr.Unexpected
	}
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// ErrorHandler returns the Fiber error handler that logs every failure with its
// original error and writes the envelope.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		res := Translate(err, c.Path(), time.Now())

		level := zapcore.WarnLevel
		if res.StatusCode >= fiber.StatusInternalServerError {
			level = zapcore.ErrorLevel
		}
		if ce := log.Check(level, "request_failed"); ce != nil {
			ce.Write(
				zap.String("kind", logKind(err, res.StatusCode).String()),
				zap.Int("status", res.StatusCode),
				zap.String("method", c.Method()),
				zap.String("path", res.Path),
				zap.String("request_id", requestIDFromCtx(c)),
				zap.Error(err),
			)
		}

		return c.Status(res.StatusCode).JSON(res)
	}
}

// writeError writes the envelope directly for failures detected outside the
// error handler chain, such as the health probe.
func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		StatusCode: status,
		Message:    message,
		Timestamp:  time.Now().UTC(),
		Path:       c.Path(),
	})
}
