package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"StockInsight/internal/domain/models"
	domrepo "StockInsight/internal/domain/repository"
	"StockInsight/internal/service/cache"
	"StockInsight/internal/service/credentials"
	applogger "StockInsight/pkg/logger"
)

// ErrUpstream wraps every failure of the upstream price API.
var ErrUpstream = errors.New("upstream fetch failed")

const seriesKeyPrefix = "series:"

// MarketData owns the API key rotation and the series cache. Series handed
// out are shared with the cache and must be treated as read-only.
type MarketData struct {
	fetcher  domrepo.BarFetcher
	keys     *credentials.Rotator
	local    *cache.TTLCache
	shared   cache.BytesCache
	prefix   string
	ttl      time.Duration
	interval domrepo.Interval
	metrics  domrepo.Metrics
	log      *applogger.Logger
	now      func() time.Time

	mu      sync.Mutex
	loading map[string]*sync.Mutex
	symbols map[string]struct{}
}

// MarketDataOption configures MarketData.
type MarketDataOption func(*MarketData)

// WithSharedCache adds a second cache level visible to other processes.
func WithSharedCache(c cache.BytesCache, prefix string) MarketDataOption {
	return func(m *MarketData) {
		m.shared = c
		m.prefix = prefix
	}
}

// WithKnownSymbols lists the symbols InvalidateAll clears from the shared
// cache even when this process never loaded them.
func WithKnownSymbols(symbols []string) MarketDataOption {
	return func(m *MarketData) {
		for _, s := range symbols {
			if s = normalizeSymbol(s); s != "" {
				m.symbols[s] = struct{}{}
			}
		}
	}
}

// WithTTL sets how long a fetched series stays fresh.
func WithTTL(ttl time.Duration) MarketDataOption {
	return func(m *MarketData) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithInterval sets the bar interval used by Load.
func WithInterval(iv domrepo.Interval) MarketDataOption {
	return func(m *MarketData) {
		if domrepo.IsValidInterval(iv) {
			m.interval = iv
		}
	}
}

func WithMetrics(mx domrepo.Metrics) MarketDataOption {
	return func(m *MarketData) { m.metrics = mx }
}

func WithLogger(l *applogger.Logger) MarketDataOption {
	return func(m *MarketData) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMarketClock replaces time.Now. Pass the same clock to the TTLCache.
func WithMarketClock(now func() time.Time) MarketDataOption {
	return func(m *MarketData) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMarketData(fetcher domrepo.BarFetcher, keys *credentials.Rotator, local *cache.TTLCache, opts ...MarketDataOption) *MarketData {
	if local == nil {
		local = cache.NewTTLCache()
	}
	m := &MarketData{
		fetcher:  fetcher,
		keys:     keys,
		local:    local,
		ttl:      10 * time.Minute,
		interval: domrepo.DefaultInterval(),
		metrics:  nopMetrics{},
		log:      applogger.Nop(),
		now:      time.Now,
		loading:  make(map[string]*sync.Mutex),
		symbols:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Interval returns the default bar interval.
func (m *MarketData) Interval() domrepo.Interval { return m.interval }

// Load returns the series of symbol at the default interval.
func (m *MarketData) Load(ctx context.Context, symbol string) (*models.Series, bool, error) {
	return m.LoadInterval(ctx, symbol, m.interval)
}

// LoadInterval serves a cached series while it is fresh and fetches it
// otherwise. The bool reports whether the result came from a cache.
func (m *MarketData) LoadInterval(ctx context.Context, symbol string, iv domrepo.Interval) (*models.Series, bool, error) {
	symbol = normalizeSymbol(symbol)
	if symbol == "" {
		return nil, false, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidInterval(iv) {
		iv = m.interval
	}
	key := seriesKey(symbol, iv)

	if s, ok := m.cached(key); ok {
		m.metrics.RecordCache(true)
		return s, true, nil
	}
	m.remember(symbol)

	// one fetch per key at a time; waiters pick up the fresh entry
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	if s, ok := m.cached(key); ok {
		m.metrics.RecordCache(true)
		return s, true, nil
	}
	if s, ok := m.fromShared(key); ok {
		m.metrics.RecordCache(true)
		return s, true, nil
	}
	m.metrics.RecordCache(false)

	start := time.Now()
	s, err := m.fetcher.FetchIntraday(ctx, symbol, m.keys.Next(), iv)
	m.metrics.RecordLatency("fetch", time.Since(start).Seconds())
	if err != nil {
		m.metrics.RecordFetch(symbol, false)
		m.metrics.RecordError("fetch")
		m.log.Warn("intraday fetch failed",
			applogger.String("symbol", symbol),
			applogger.String("interval", string(iv)),
			applogger.Error(err),
		)
		return nil, false, fmt.Errorf("%w: %s: %w", ErrUpstream, symbol, err)
	}
	m.metrics.RecordFetch(symbol, true)
	if s.FetchedAt.IsZero() {
		s.FetchedAt = m.now()
	}

	m.local.Set(key, s, m.ttl)
	m.toShared(key, s)
	if last, ok := s.Last(); ok {
		m.metrics.RecordLastPrice(symbol, last.Close)
	}
	m.log.Debug("intraday series fetched",
		applogger.String("symbol", symbol),
		applogger.Int("bars", s.Len()),
		applogger.Duration("took_ms", time.Since(start)),
	)
	return s, false, nil
}

// Cached reports whether symbol would be served without a network call.
func (m *MarketData) Cached(symbol string) bool {
	_, ok := m.cached(seriesKey(normalizeSymbol(symbol), m.interval))
	return ok
}

// Invalidate drops every cached interval of symbol.
func (m *MarketData) Invalidate(symbol string) {
	symbol = normalizeSymbol(symbol)
	n := m.local.DeletePrefix(seriesKeyPrefix + symbol + ":")
	m.dropShared(symbol)
	m.log.Info("series cache invalidated", applogger.String("symbol", symbol), applogger.Int("entries", n))
}

// InvalidateAll drops every cached series.
func (m *MarketData) InvalidateAll() {
	n := m.local.DeletePrefix(seriesKeyPrefix)
	m.mu.Lock()
	symbols := make([]string, 0, len(m.symbols))
	for s := range m.symbols {
		symbols = append(symbols, s)
	}
	m.mu.Unlock()
	m.dropShared(symbols...)
	m.log.Info("series cache cleared", applogger.Int("entries", n))
}

func (m *MarketData) cached(key string) (*models.Series, bool) {
	v, ok := m.local.Get(key)
	if !ok {
		return nil, false
	}
	s, ok := v.(*models.Series)
	return s, ok
}

func (m *MarketData) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.loading[key]
	if !ok {
		l = &sync.Mutex{}
		m.loading[key] = l
	}
	return l
}

// fromShared promotes a fresh L2 entry into the local cache, keeping the
// original fetch time so both levels expire together.
func (m *MarketData) fromShared(key string) (*models.Series, bool) {
	if m.shared == nil {
		return nil, false
	}
	b, ok, err := m.shared.GetBytes(m.prefix + key)
	if err != nil {
		m.log.Warn("shared cache read failed", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var s models.Series
	if err := json.Unmarshal(b, &s); err != nil {
		m.log.Warn("shared cache entry unreadable", applogger.String("key", key), applogger.Error(err))
		return nil, false
	}
	remaining := m.ttl - m.now().Sub(s.FetchedAt)
	if remaining <= 0 {
		return nil, false
	}
	m.local.Set(key, &s, remaining)
	return &s, true
}

func (m *MarketData) toShared(key string, s *models.Series) {
	if m.shared == nil {
		return
	}
	b, err := json.Marshal(s)
	if err != nil {
		m.log.Warn("series encode failed", applogger.String("key", key), applogger.Error(err))
		return
	}
	if err := m.shared.SetBytes(m.prefix+key, b, m.ttl); err != nil {
		m.log.Warn("shared cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}

// dropShared deletes every interval of the given symbols from L2.
func (m *MarketData) dropShared(symbols ...string) {
	if m.shared == nil {
		return
	}
	for _, symbol := range symbols {
		for _, iv := range domrepo.Intervals() {
			key := seriesKey(symbol, iv)
			if err := m.shared.DeleteBytes(m.prefix + key); err != nil {
				m.log.Warn("shared cache delete failed", applogger.String("key", key), applogger.Error(err))
			}
		}
	}
}

func (m *MarketData) remember(symbol string) {
	m.mu.Lock()
	m.symbols[symbol] = struct{}{}
	m.mu.Unlock()
}

func seriesKey(symbol string, iv domrepo.Interval) string {
	return seriesKeyPrefix + symbol + ":" + string(iv)
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, bool)        {}
func (nopMetrics) RecordCache(bool)                {}
func (nopMetrics) RecordError(string)              {}
func (nopMetrics) RecordLastPrice(string, float64) {}
func (nopMetrics) RecordForecast(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)   {}
