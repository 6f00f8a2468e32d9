package middleware

import (
	"net/http"
	"time"

	applogger "StockInsight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs every request. Mutating requests such as cache
// refreshes are logged at info, reads at debug; failures are left to Metrics.
func RequestLogging(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			if err := next(c); err != nil {
				c.Error(err)
			}

			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("uri", req.RequestURI),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", c.Response().Status),
				applogger.Duration("latency_ms", time.Since(start)),
			}
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				l.Debug("http request", fields...)
			default:
				l.Info("http request", fields...)
			}
			return nil
		}
	}
}
