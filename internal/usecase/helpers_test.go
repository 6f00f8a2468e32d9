package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"StockInsight/internal/domain/models"
	domrepo "StockInsight/internal/domain/repository"
	"StockInsight/internal/domain/service"
	"StockInsight/internal/service/cache"
	"StockInsight/internal/service/credentials"
	"StockInsight/internal/services/forest"
)

var t0 = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: t0.Add(48 * time.Hour)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeFetcher struct {
	mu    sync.Mutex
	bars  map[string][]models.Bar
	errs  map[string]error
	calls map[string]int
	keys  []string
	now   func() time.Time
}

func newFakeFetcher(now func() time.Time) *fakeFetcher {
	return &fakeFetcher{
		bars:  map[string][]models.Bar{},
		errs:  map[string]error{},
		calls: map[string]int{},
		now:   now,
	}
}

func (f *fakeFetcher) FetchIntraday(_ context.Context, symbol, apiKey string, iv domrepo.Interval) (*models.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	f.keys = append(f.keys, apiKey)
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, errors.New("no data for " + symbol)
	}
	out := make([]models.Bar, len(bars))
	copy(out, bars)
	return &models.Series{Symbol: symbol, Interval: string(iv), Bars: out, FetchedAt: f.now()}, nil
}

func (f *fakeFetcher) Calls(symbol string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[symbol]
}

func (f *fakeFetcher) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []*models.Forecast
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, fc *models.Forecast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, fc)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// hourlyBars returns n hourly bars whose close follows closeAt.
func hourlyBars(n int, start time.Time, closeAt func(i int) float64) []models.Bar {
	bars := make([]models.Bar, n)
	for i := range bars {
		c := closeAt(i)
		bars[i] = models.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c - 0.5,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func linear(start, step float64) func(int) float64 {
	return func(i int) float64 { return start + step*float64(i) }
}

func mustRotator(t *testing.T, keys ...string) *credentials.Rotator {
	t.Helper()
	r, err := credentials.NewRotator(keys)
	if err != nil {
		t.Fatalf("rotator: %v", err)
	}
	return r
}

func newTestMarketData(t *testing.T, f *fakeFetcher, clock *fakeClock, opts ...MarketDataOption) *MarketData {
	t.Helper()
	local := cache.NewTTLCache(cache.WithClock(clock.Now))
	opts = append([]MarketDataOption{WithTTL(600 * time.Second), WithMarketClock(clock.Now)}, opts...)
	return NewMarketData(f, mustRotator(t, "k1", "k2"), local, opts...)
}

func smallForest() service.Regressor {
	cfg := forest.DefaultConfig()
	cfg.Trees = 20
	return forest.New(cfg)
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }
