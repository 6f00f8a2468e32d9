package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"StockInsight/internal/domain/models"
	domrepo "StockInsight/internal/domain/repository"
	applogger "StockInsight/pkg/logger"
	"StockInsight/pkg/util"
)

// ComparisonWindow is how many recent bars each comparison line shows.
const ComparisonWindow = 100

// Overview compares the configured symbols for their latest trading day.
type Overview struct {
	data    *MarketData
	symbols []string
	delay   time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
	metrics domrepo.Metrics
	log     *applogger.Logger
	now     func() time.Time
}

// OverviewOption configures Overview.
type OverviewOption func(*Overview)

// WithRequestDelay sets the pause before each network fetch after the first.
func WithRequestDelay(d time.Duration) OverviewOption {
	return func(o *Overview) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithSleeper replaces the context-aware sleep used between fetches.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) OverviewOption {
	return func(o *Overview) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

func WithOverviewLogger(l *applogger.Logger) OverviewOption {
	return func(o *Overview) {
		if l != nil {
			o.log = l
		}
	}
}

func WithOverviewMetrics(mx domrepo.Metrics) OverviewOption {
	return func(o *Overview) {
		if mx != nil {
			o.metrics = mx
		}
	}
}

func NewOverview(data *MarketData, symbols []string, opts ...OverviewOption) *Overview {
	o := &Overview{
		data:    data,
		symbols: normalizeSymbols(symbols),
		delay:   12 * time.Second,
		sleep:   sleepCtx,
		metrics: nopMetrics{},
		log:     applogger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Symbols returns the configured symbols in display order.
func (o *Overview) Symbols() []string {
	out := make([]string, len(o.symbols))
	copy(out, o.symbols)
	return out
}

// Build loads every symbol one after another. Consecutive network fetches
// are spaced by the request delay; cached symbols cost no wait. A symbol
// that fails is reported in Failures and left out of the aggregates.
func (o *Overview) Build(ctx context.Context) (*models.Overview, error) {
	start := time.Now()
	res := &models.Overview{
		Rows:     make([]models.OverviewRow, 0, len(o.symbols)),
		Lines:    make(map[string][]models.LinePoint, len(o.symbols)),
		Volumes:  make(map[string]float64, len(o.symbols)),
		Failures: map[string]string{},
	}

	fetched := false
	for _, symbol := range o.symbols {
		if fetched && o.delay > 0 && !o.data.Cached(symbol) {
			if err := o.sleep(ctx, o.delay); err != nil {
				return nil, err
			}
		}
		s, fromCache, err := o.data.Load(ctx, symbol)
		if !fromCache {
			fetched = true
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			res.Failures[symbol] = err.Error()
			continue
		}

		row, ok := SummarizeToday(symbol, s.Bars)
		if !ok {
			res.Failures[symbol] = "no usable bars"
			continue
		}
		res.Rows = append(res.Rows, row)
		res.Lines[symbol] = closeLine(s.Tail(ComparisonWindow))
		res.Volumes[symbol] = row.VolumeToday
		res.TotalVolume += row.VolumeToday
		if res.TopSymbol == "" || row.VolumeToday > res.Volumes[res.TopSymbol] {
			res.TopSymbol = symbol
		}
	}

	res.GeneratedAt = o.now()
	o.metrics.RecordLatency("overview", time.Since(start).Seconds())
	if len(res.Failures) > 0 {
		o.log.Warn("overview built with failures",
			applogger.Int("symbols", len(o.symbols)),
			applogger.Int("failed", len(res.Failures)),
		)
	}
	if len(res.Rows) == 0 && len(o.symbols) > 0 {
		return res, fmt.Errorf("%w: no symbol could be loaded", ErrUpstream)
	}
	return res, nil
}

// SummarizeToday aggregates the bars sharing the calendar date of the
// latest bar: total volume plus the highest high and lowest low with their
// times. LastClose is the latest defined close.
func SummarizeToday(symbol string, bars []models.Bar) (models.OverviewRow, bool) {
	if len(bars) == 0 {
		return models.OverviewRow{}, false
	}
	row := models.OverviewRow{Symbol: symbol, LastClose: math.NaN()}
	for i := len(bars) - 1; i >= 0; i-- {
		if !math.IsNaN(bars[i].Close) {
			row.LastClose = bars[i].Close
			break
		}
	}
	if math.IsNaN(row.LastClose) {
		return models.OverviewRow{}, false
	}

	today := bars[len(bars)-1].Time
	peak, dip := math.Inf(-1), math.Inf(1)
	for i := len(bars) - 1; i >= 0 && util.SameDay(bars[i].Time, today); i-- {
		b := bars[i]
		if !math.IsNaN(b.Volume) {
			row.VolumeToday += b.Volume
		}
		if !math.IsNaN(b.High) && b.High >= peak {
			peak, row.PeakTime = b.High, b.Time
		}
		if !math.IsNaN(b.Low) && b.Low <= dip {
			dip, row.DipTime = b.Low, b.Time
		}
	}
	if !math.IsInf(peak, 0) && !math.IsInf(dip, 0) {
		row.PeakPrice, row.DipPrice = peak, dip
		row.HasToday = true
	}
	return row, true
}

// PeakToday is the highest high on the latest bar's date, or the latest
// bar's own high when that date has no defined high.
func PeakToday(bars []models.Bar) float64 {
	if len(bars) == 0 {
		return math.NaN()
	}
	last := bars[len(bars)-1]
	peak := math.Inf(-1)
	for i := len(bars) - 1; i >= 0 && util.SameDay(bars[i].Time, last.Time); i-- {
		if h := bars[i].High; !math.IsNaN(h) && h > peak {
			peak = h
		}
	}
	if math.IsInf(peak, -1) {
		return last.High
	}
	return peak
}

func closeLine(bars []models.Bar) []models.LinePoint {
	out := make([]models.LinePoint, 0, len(bars))
	for _, b := range bars {
		if math.IsNaN(b.Close) {
			continue
		}
		out = append(out, models.LinePoint{Time: b.Time, Close: b.Close})
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		s = normalizeSymbol(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
