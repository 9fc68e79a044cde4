package middleware

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"lendledger/internal/infrastructure/metrics"
)

// RequestID stamps every request with a uuid unless the client sent one.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString})
}

// Observe writes one access log record per request and feeds the HTTP metrics.
func Observe(logger *slog.Logger, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			req, res := c.Request(), c.Response()
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			d := time.Since(start)
			m.ObserveRequest(req.Method, path, res.Status, d)

			level := slog.LevelInfo
			if res.Status >= 500 {
				level = slog.LevelError
			}
			logger.Log(req.Context(), level, "http request",
				"method", req.Method,
				"path", path,
				"uri", req.RequestURI,
				"status", res.Status,
				"duration_ms", d.Milliseconds(),
				"bytes_out", res.Size,
				"request_id", res.Header().Get(echo.HeaderXRequestID),
				"remote_ip", c.RealIP(),
			)
			return nil
		}
	}
}
