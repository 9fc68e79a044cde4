package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct{ checks map[string]HealthCheck }

func NewHandler() *Handler { return &Handler{checks: map[string]HealthCheck{}} }

// WithCheck adds a named dependency check to /health.
func (h *Handler) WithCheck(name string, fn HealthCheck) *Handler {
	h.checks[name] = fn
	return h
}

func (h *Handler) Health(c echo.Context) error {
	status, code := "ok", http.StatusOK
	body := map[string]any{}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		results := make(map[string]string, len(h.checks))
		for n, check := range h.checks {
			if err := check(ctx); err != nil {
				results[n] = err.Error()
				status, code = "degraded", http.StatusServiceUnavailable
				continue
			}
			results[n] = "ok"
		}
		body["checks"] = results
	}

	body["status"] = status
	body["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	return c.JSON(code, body)
}
