package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/clinica-api/pkg/logger"
	"github.com/jhoicas/clinica-api/pkg/metrics"
)

// AccessLog cuenta y mide cada petición por ruta registrada, y registra las 5xx.
func AccessLog(m *metrics.Metrics, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Errores de Fiber (404 de ruta, body demasiado grande) los resuelve el ErrorHandler.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}
		status := c.Response().StatusCode()
		route := c.Route().Path
		if m != nil {
			labels := []string{c.Method(), route, strconv.Itoa(status)}
			m.HTTPRequests.WithLabelValues(labels...).Inc()
			m.HTTPDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		}
		if status >= fiber.StatusInternalServerError && log != nil {
			ev := log.Error().
				Str("method", c.Method()).
				Str("route", route).
				Int("status", status).
				Str("correlation_id", GetMeta(c).CorrelationID)
			if cause, ok := c.Locals(LocalError).(error); ok {
				ev = ev.Err(cause)
			}
			ev.Msg("petición fallida")
		}
		return nil
	}
}
