// Package web serves the HTML dashboard.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/service/metrics"
	"StockInsight/internal/service/ratelimit"
	"StockInsight/internal/services/charts"
	"StockInsight/internal/usecase"
	xhttp "StockInsight/pkg/http"
	xlogger "StockInsight/pkg/logger"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

const pageTitle = "Stock Insight Dashboard"

type pageView struct {
	Title    string
	Symbols  []string
	Selected string
	Notice   string
	Error    string
	Overview *overviewView
	Detail   *detailView
}

type overviewView struct {
	TotalTrades string
	TopSymbol   string
	Comparison  string
	VolumeShare string
	Highlights  []highlightRow
	Failures    []string
}

type highlightRow struct {
	Symbol    string
	LastClose string
	Volume    string
	PeakTime  string
	PeakPrice string
	DipTime   string
	DipPrice  string
}

type detailView struct {
	Symbol            string
	LastUpdated       string
	LastClose         string
	PeakToday         string
	HasForecast       bool
	NextClose         string
	MAE               string
	RMSE              string
	Recent            string
	MovingAverages    string
	ActualVsPredicted string
}

// PageHandler renders the dashboard page and handles manual refreshes.
type PageHandler struct {
	logger   *xlogger.Logger
	data     *usecase.MarketData
	overview *usecase.Overview
	detail   *usecase.Detail
	limiter  *ratelimit.Limiter
}

func NewPageHandler(logger *xlogger.Logger, data *usecase.MarketData, overview *usecase.Overview, detail *usecase.Detail, limiter *ratelimit.Limiter) *PageHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &PageHandler{logger: logger, data: data, overview: overview, detail: detail, limiter: limiter}
}

func (h *PageHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.POST("/refresh", h.Refresh)
}

func (h *PageHandler) Index(c echo.Context) error {
	start := time.Now()
	view := &pageView{Title: pageTitle, Symbols: h.overview.Symbols()}

	req := &models.PageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		view.Error = "Invalid selection."
		return h.render(c, http.StatusBadRequest, view)
	}
	req.Symbol = strings.ToUpper(req.Symbol)
	view.Selected = req.Symbol
	switch req.Notice {
	case "refreshed":
		view.Notice = "Cache cleared, data reloaded."
	case "throttled":
		view.Notice = "Refresh limit reached, showing cached data."
	}

	ctx := c.Request().Context()
	status := http.StatusOK
	if req.Symbol == "" {
		defer metrics.ObserveSince("page_overview", start)
		ov, err := h.overview.Build(ctx)
		if err != nil {
			h.logger.Warn("overview page failed", xlogger.Error(err))
			view.Error = "Error fetching data: " + err.Error()
			status = statusFor(err)
		}
		if ov != nil {
			view.Overview = h.overviewView(ov)
		}
		return h.render(c, status, view)
	}

	defer metrics.ObserveSince("page_detail", start)
	d, err := h.detail.Build(ctx, req.Symbol)
	if err != nil {
		h.logger.Warn("detail page failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		view.Error = userMessage(req.Symbol, err)
		if !errors.Is(err, usecase.ErrInsufficientHistory) {
			status = statusFor(err)
		}
	}
	if d != nil {
		view.Detail = h.detailView(d)
	}
	return h.render(c, status, view)
}

// Refresh drops cached data for the posted symbol, or for every symbol when
// none is given, then redirects back to the page.
func (h *PageHandler) Refresh(c echo.Context) error {
	req := &models.PageRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if req.Symbol == "" {
		req.Symbol = c.QueryParam("symbol")
	}
	req.Symbol = strings.ToUpper(strings.TrimSpace(req.Symbol))
	if req.Symbol != "" && !h.detail.Known(req.Symbol) {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	key := req.Symbol
	if key == "" {
		key = "*"
	}
	notice := "refreshed"
	switch {
	case h.limiter != nil && !h.limiter.Allow(key):
		metrics.RefreshThrottled.WithLabelValues(key).Inc()
		notice = "throttled"
	case req.Symbol == "":
		h.data.InvalidateAll()
	default:
		h.data.Invalidate(req.Symbol)
	}

	q := url.Values{"notice": {notice}}
	if req.Symbol != "" {
		q.Set("symbol", req.Symbol)
	}
	return c.Redirect(http.StatusSeeOther, "/?"+q.Encode())
}

func (h *PageHandler) overviewView(ov *models.Overview) *overviewView {
	v := &overviewView{
		TotalTrades: Quantity(ov.TotalVolume),
		TopSymbol:   ov.TopSymbol,
	}
	symbols := h.overview.Symbols()
	for _, s := range symbols {
		if msg, ok := ov.Failures[s]; ok {
			v.Failures = append(v.Failures, fmt.Sprintf("%s: %s", s, msg))
		}
	}
	for _, r := range ov.Rows {
		row := highlightRow{
			Symbol:    r.Symbol,
			LastClose: Money(r.LastClose),
			Volume:    Quantity(r.VolumeToday),
			PeakTime:  notAvailable,
			PeakPrice: notAvailable,
			DipTime:   notAvailable,
			DipPrice:  notAvailable,
		}
		if r.HasToday {
			row.PeakTime, row.PeakPrice = Stamp(r.PeakTime), Money(r.PeakPrice)
			row.DipTime, row.DipPrice = Stamp(r.DipTime), Money(r.DipPrice)
		}
		v.Highlights = append(v.Highlights, row)
	}
	if len(ov.Rows) > 0 {
		v.Comparison = h.chart(charts.Comparison(symbols, ov.Lines))
		v.VolumeShare = h.chart(charts.VolumeShare(symbols, ov.Volumes))
	}
	return v
}

func (h *PageHandler) detailView(d *models.Detail) *detailView {
	v := &detailView{
		Symbol:      d.Symbol,
		LastUpdated: d.LastUpdated,
		LastClose:   Money(d.LastClose),
		PeakToday:   Money(d.PeakToday),
	}
	if d.Series != nil {
		v.Recent = h.chart(charts.RecentPrices(d.Symbol, d.Series.Bars))
		v.MovingAverages = h.chart(charts.MovingAverages(d.Symbol, d.Series.Bars))
	}
	if fc := d.Forecast; fc != nil {
		v.HasForecast = true
		v.NextClose = Money(fc.NextClose)
		v.MAE = Fixed(fc.MAE, 4)
		v.RMSE = Fixed(fc.RMSE, 4)
		v.ActualVsPredicted = h.chart(charts.ActualVsPredicted(fc.Test))
	}
	return v
}

func (h *PageHandler) chart(c charts.Renderer) string {
	s, err := charts.RenderString(c)
	if err != nil {
		h.logger.Error("chart render failed", xlogger.Error(err))
		return ""
	}
	return s
}

func (h *PageHandler) render(c echo.Context, status int, view *pageView) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		h.logger.Error("page render failed", xlogger.Error(err))
		return c.String(http.StatusInternalServerError, "page render failed")
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func userMessage(symbol string, err error) string {
	switch {
	case errors.Is(err, usecase.ErrUnknownSymbol):
		return fmt.Sprintf("%s is not on the watch list.", symbol)
	case errors.Is(err, usecase.ErrInsufficientHistory):
		return fmt.Sprintf("Not enough price history for %s to forecast the next close.", symbol)
	default:
		return "Error fetching data: " + err.Error()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
