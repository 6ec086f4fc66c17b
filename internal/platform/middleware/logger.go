package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/cardio/cardio/internal/platform/session"
)

// Logger emits one structured line per request. Measurement values, plans and
// diagnoses never appear in the log; only routing, timing and the acting
// account are recorded.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			req := c.Request()
			res := c.Response()

			var evt *zerolog.Event
			switch {
			case err != nil:
				evt = logger.Error().Err(err)
			case res.Status >= http.StatusBadRequest:
				evt = logger.Warn()
			default:
				evt = logger.Info()
			}

			evt = evt.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Int64("bytes_out", res.Size).
				Dur("elapsed", time.Since(start)).
				Str("remote_ip", c.RealIP())

			if rid, ok := c.Get("request_id").(string); ok && rid != "" {
				evt = evt.Str("request_id", rid)
			}
			// Session middleware runs inside this one, so by the time the
			// handler returns the request context carries the identity.
			if id := session.FromContext(req.Context()); id != nil {
				evt = evt.Str("username", id.Username).Str("role", id.Role)
			}

			evt.Msg("handled request")
			return err
		}
	}
}
