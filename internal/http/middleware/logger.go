package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a middleware that writes one structured log line per HTTP request.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (milliseconds, via the logger's duration encoder)
func Logger(log *zap.Logger) fiber.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := statusOf(c, err)
		level := zapcore.InfoLevel
		switch {
		case status >= fiber.StatusInternalServerError:
			level = zapcore.ErrorLevel
		case status >= fiber.StatusBadRequest:
			level = zapcore.WarnLevel
		}

		rid := RequestIDFrom(c)
		if ce := log.Check(level, "http_request"); ce != nil {
			fields := []zap.Field{
				zap.String("request_id", rid),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Duration("latency", time.Since(start)),
			}
			logErr := err
			if logErr == nil {
				logErr, _ = c.Locals(ErrorLocalKey).(error)
			}
			if logErr != nil {
				fields = append(fields, zap.Error(logErr))
			}
			ce.Write(fields...)
		}

		return err
	}
}

// ErrorLocalKey holds an error a handler already rendered to the client, so it is
// still logged even though the handler returned nil.
const ErrorLocalKey = "handler_error"

// statusOf returns the status the client will see. Errors returned up the chain are
// rendered later by the app ErrorHandler, so the response code is not final yet.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fe, ok := err.(*fiber.Error); ok {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
