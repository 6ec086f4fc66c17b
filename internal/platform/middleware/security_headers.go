package middleware

import (
	"github.com/labstack/echo/v4"
)

// securityHeaders is applied to every response. The API hands out diagnoses
// and treatment plans, so nothing is cacheable and nothing may be embedded
// or sniffed into another content type.
var securityHeaders = map[string]string{
	"X-Content-Type-Options":    "nosniff",
	"X-Frame-Options":           "DENY",
	"X-XSS-Protection":          "0",
	"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
	"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
	"Referrer-Policy":           "no-referrer",
	"Permissions-Policy":        "camera=(), microphone=(), geolocation=()",
	"Cache-Control":             "no-store",
}

func SecurityHeaders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			for name, value := range securityHeaders {
				h.Set(name, value)
			}
			return next(c)
		}
	}
}
