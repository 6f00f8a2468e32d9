package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORSConfig lists the origins allowed to call the JSON API.
type CORSConfig struct {
	AllowOrigins []string
	MaxAge       int
}

// CORS allows cross-origin reads of the dashboard API. Retry-After is
// exposed so browser clients can back off after a throttled refresh.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
		},
		ExposeHeaders: []string{"Retry-After"},
		MaxAge:        cfg.MaxAge,
	})
}
