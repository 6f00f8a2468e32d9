package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockInsight/internal/service/cache"
)

func TestLoadServesCacheWithinTTL(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	f.bars["AAPL"] = hourlyBars(30, t0, linear(100, 1))
	md := newTestMarketData(t, f, clock)
	ctx := context.Background()

	first, cached, err := md.Load(ctx, "AAPL")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cached {
		t.Fatalf("first load should hit the network")
	}

	clock.Advance(599 * time.Second)
	second, cached, err := md.Load(ctx, "aapl")
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if !cached || second != first {
		t.Fatalf("expected the cached series, cached=%v", cached)
	}
	if got := f.Calls("AAPL"); got != 1 {
		t.Fatalf("fetch calls = %d, want 1", got)
	}
	if !md.Cached("AAPL") {
		t.Fatalf("Cached should report true within TTL")
	}
}

func TestLoadRefetchesAfterTTL(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	f.bars["MSFT"] = hourlyBars(30, t0, linear(300, 1))
	md := newTestMarketData(t, f, clock)
	ctx := context.Background()

	if _, _, err := md.Load(ctx, "MSFT"); err != nil {
		t.Fatalf("load: %v", err)
	}
	clock.Advance(601 * time.Second)
	if md.Cached("MSFT") {
		t.Fatalf("entry should be stale")
	}
	s, cached, err := md.Load(ctx, "MSFT")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if cached {
		t.Fatalf("expired entry must not be served")
	}
	if !s.FetchedAt.Equal(clock.Now()) {
		t.Fatalf("fetched_at = %v, want %v", s.FetchedAt, clock.Now())
	}
	if got := f.Calls("MSFT"); got != 2 {
		t.Fatalf("fetch calls = %d, want 2", got)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	f.bars["AAPL"] = hourlyBars(30, t0, linear(100, 1))
	f.bars["MSFT"] = hourlyBars(30, t0, linear(300, 1))
	md := newTestMarketData(t, f, clock)
	ctx := context.Background()

	for _, s := range []string{"AAPL", "MSFT"} {
		if _, _, err := md.Load(ctx, s); err != nil {
			t.Fatalf("load %s: %v", s, err)
		}
	}

	md.Invalidate("aapl")
	if md.Cached("AAPL") {
		t.Fatalf("AAPL should be invalidated")
	}
	if !md.Cached("MSFT") {
		t.Fatalf("MSFT should stay cached")
	}
	if _, cached, _ := md.Load(ctx, "AAPL"); cached {
		t.Fatalf("expected a refetch after invalidation")
	}

	md.InvalidateAll()
	if _, cached, _ := md.Load(ctx, "MSFT"); cached {
		t.Fatalf("expected a refetch after clearing the cache")
	}
	if f.Calls("AAPL") != 2 || f.Calls("MSFT") != 2 {
		t.Fatalf("calls AAPL=%d MSFT=%d, want 2 each", f.Calls("AAPL"), f.Calls("MSFT"))
	}
}

func TestLoadRotatesKeys(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	for _, s := range []string{"A", "B", "C"} {
		f.bars[s] = hourlyBars(10, t0, linear(10, 1))
	}
	md := newTestMarketData(t, f, clock)
	for _, s := range []string{"A", "B", "C"} {
		if _, _, err := md.Load(context.Background(), s); err != nil {
			t.Fatalf("load %s: %v", s, err)
		}
	}
	want := []string{"k1", "k2", "k1"}
	for i, k := range want {
		if f.keys[i] != k {
			t.Fatalf("key %d = %q, want %q (all %v)", i, f.keys[i], k, f.keys)
		}
	}
}

func TestLoadWrapsUpstreamError(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	limit := errors.New("rate limited")
	f.errs["TSLA"] = limit
	md := newTestMarketData(t, f, clock)

	_, _, err := md.Load(context.Background(), "TSLA")
	if !errors.Is(err, ErrUpstream) || !errors.Is(err, limit) {
		t.Fatalf("expected wrapped upstream error, got %v", err)
	}
	if md.Cached("TSLA") {
		t.Fatalf("failures must not be cached")
	}
}

func TestLoadRejectsBlankSymbol(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	md := newTestMarketData(t, f, clock)
	if _, _, err := md.Load(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for blank symbol")
	}
	if f.TotalCalls() != 0 {
		t.Fatalf("fetcher must not be called")
	}
}

func TestSharedCacheAcrossInstances(t *testing.T) {
	clock := newFakeClock()
	f := newFakeFetcher(clock.Now)
	f.bars["GOOGL"] = hourlyBars(30, t0, linear(140, 0.5))
	shared := cache.NewTTLCache(cache.WithClock(clock.Now))

	a := newTestMarketData(t, f, clock, WithSharedCache(shared, "test:"))
	b := newTestMarketData(t, f, clock, WithSharedCache(shared, "test:"))
	ctx := context.Background()

	if _, _, err := a.Load(ctx, "GOOGL"); err != nil {
		t.Fatalf("load a: %v", err)
	}
	clock.Advance(5 * time.Minute)
	s, cached, err := b.Load(ctx, "GOOGL")
	if err != nil {
		t.Fatalf("load b: %v", err)
	}
	if !cached || s.Len() != 30 {
		t.Fatalf("expected shared hit with 30 bars, cached=%v len=%d", cached, s.Len())
	}
	if f.Calls("GOOGL") != 1 {
		t.Fatalf("fetch calls = %d, want 1", f.Calls("GOOGL"))
	}

	// the promoted entry keeps the original fetch time
	clock.Advance(4*time.Minute + 59*time.Second)
	if !b.Cached("GOOGL") {
		t.Fatalf("promoted entry should still be fresh")
	}
	clock.Advance(2 * time.Second)
	if b.Cached("GOOGL") {
		t.Fatalf("promoted entry should expire with the original fetch")
	}

	if _, cached, _ := a.Load(ctx, "GOOGL"); cached {
		t.Fatalf("expected a refetch once both levels expired")
	}
	key := "test:" + seriesKey("GOOGL", b.Interval())
	if want := "test:series:GOOGL:" + string(b.Interval()); key != want {
		t.Fatalf("shared key = %q, want %q", key, want)
	}
	if _, ok, _ := shared.GetBytes(key); !ok {
		t.Fatalf("refetch should repopulate the shared cache")
	}
	b.Invalidate("GOOGL")
	if _, ok, _ := shared.GetBytes(key); ok {
		t.Fatalf("shared entry should be deleted")
	}
}
