package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	applogger "StockInsight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Recover turns a handler panic into a 500. API routes get the JSON
// envelope, dashboard pages a plain message.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	if l == nil {
		l = applogger.Nop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				l.Error("panic recovered",
					applogger.Error(perr),
					applogger.String("uri", c.Request().RequestURI),
					applogger.String("stack", string(debug.Stack())),
				)
				if c.Response().Committed {
					return
				}
				if strings.HasPrefix(c.Request().URL.Path, "/api/") {
					err = c.JSON(http.StatusInternalServerError, map[string]interface{}{
						"status":  http.StatusInternalServerError,
						"message": http.StatusText(http.StatusInternalServerError),
					})
					return
				}
				err = c.String(http.StatusInternalServerError, "Something went wrong while building the page.")
			}()
			return next(c)
		}
	}
}
