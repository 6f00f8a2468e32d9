package api

import (
	"net/http"
	"strconv"
	"time"

	models "StockInsight/internal/domain/models"
	domrepo "StockInsight/internal/domain/repository"
	"StockInsight/internal/service/metrics"
	"StockInsight/internal/service/ratelimit"
	"StockInsight/internal/usecase"
	xhttp "StockInsight/pkg/http"
	xlogger "StockInsight/pkg/logger"

	"github.com/labstack/echo/v4"
)

// refreshAllKey is the limiter bucket shared by full cache clears.
const refreshAllKey = "*"

// DashboardEchoHandler serves the dashboard data as JSON.
type DashboardEchoHandler struct {
	logger   *xlogger.Logger
	data     *usecase.MarketData
	overview *usecase.Overview
	detail   *usecase.Detail
	limiter  *ratelimit.Limiter
}

func NewDashboardEchoHandler(logger *xlogger.Logger, data *usecase.MarketData, overview *usecase.Overview, detail *usecase.Detail, limiter *ratelimit.Limiter) *DashboardEchoHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &DashboardEchoHandler{logger: logger, data: data, overview: overview, detail: detail, limiter: limiter}
}

func (h *DashboardEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/stocks", h.Stocks)
	g.GET("/stocks/:symbol", h.Stock)
	g.POST("/stocks/:symbol/refresh", h.Refresh)
	g.GET("/overview", h.Overview)
	g.DELETE("/cache", h.ClearCache)
}

func (h *DashboardEchoHandler) Stocks(c echo.Context) error {
	symbols := h.overview.Symbols()
	return xhttp.ListResponse(c, symbols, int64(len(symbols)))
}

func (h *DashboardEchoHandler) Stock(c echo.Context) error {
	const endpoint = "stock"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.StockRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	iv := domrepo.NormalizeInterval(req.Interval)

	res, err := h.detail.BuildInterval(c.Request().Context(), req.Symbol, iv)
	if err != nil {
		return h.fail(c, endpoint, err, xlogger.String("symbol", req.Symbol))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Overview(c echo.Context) error {
	const endpoint = "overview"
	defer metrics.ObserveSince(endpoint, time.Now())

	res, err := h.overview.Build(c.Request().Context())
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DashboardEchoHandler) Refresh(c echo.Context) error {
	const endpoint = "refresh"
	defer metrics.ObserveSince(endpoint, time.Now())

	req := &models.RefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.detail.Known(req.Symbol) {
		return h.fail(c, endpoint, xhttp.NotFoundErrorf("symbol %s is not tracked", req.Symbol))
	}
	if err := h.allow(req.Symbol); err != nil {
		return h.fail(c, endpoint, err, xlogger.String("symbol", req.Symbol))
	}

	h.data.Invalidate(req.Symbol)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":      req.Symbol,
		"invalidated": true,
	})
}

func (h *DashboardEchoHandler) ClearCache(c echo.Context) error {
	const endpoint = "clear_cache"
	defer metrics.ObserveSince(endpoint, time.Now())

	if err := h.allow(refreshAllKey); err != nil {
		return h.fail(c, endpoint, err)
	}
	h.data.InvalidateAll()
	return xhttp.NoContentResponse(c)
}

// allow consumes a refresh token for key, answering 429 when none is left.
func (h *DashboardEchoHandler) allow(key string) error {
	if h.limiter == nil || h.limiter.Allow(key) {
		return nil
	}
	metrics.RefreshThrottled.WithLabelValues(key).Inc()
	return xhttp.TooManyRequestsError("refresh limit reached, try again shortly", h.limiter.RetryAfter(key)).
		WithParam("key", key)
}

func (h *DashboardEchoHandler) fail(c echo.Context, endpoint string, err error, fields ...xlogger.Field) error {
	appErr := toAppError(err)
	metrics.EndpointErrors.WithLabelValues(endpoint, strconv.Itoa(appErr.Status)).Inc()

	fields = append(fields, xlogger.String("endpoint", endpoint), xlogger.Int("status", appErr.Status), xlogger.Error(err))
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("dashboard request failed", fields...)
	} else {
		h.logger.Warn("dashboard request rejected", fields...)
	}
	return xhttp.AppErrorResponse(c, appErr)
}
