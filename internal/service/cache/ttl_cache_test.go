package cache

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time          { return f.t }
func (f *fakeClock) Advance(d time.Duration) { f.t = f.t.Add(d) }

func TestTTLCacheExpiry(t *testing.T) {
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewTTLCache(WithClock(clk.Now))

	c.Set("AAPL", 1, 10*time.Minute)
	if v, ok := c.Get("AAPL"); !ok || v.(int) != 1 {
		t.Fatalf("expected hit, got %v %v", v, ok)
	}

	clk.Advance(9 * time.Minute)
	if _, ok := c.Get("AAPL"); !ok {
		t.Fatalf("entry expired too early")
	}

	clk.Advance(2 * time.Minute)
	if _, ok := c.Get("AAPL"); ok {
		t.Fatalf("entry should have expired")
	}
	if len(c.m) != 0 {
		t.Fatalf("expired entry should be evicted on read")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewTTLCache(WithClock(clk.Now))
	c.Set("k", "v", 0)
	clk.Advance(1000 * time.Hour)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("zero ttl entry must not expire")
	}
}

func TestTTLCacheDelete(t *testing.T) {
	c := NewTTLCache()
	c.Set("series:AAPL", 1, time.Minute)
	c.Set("series:MSFT", 2, time.Minute)
	c.Set("other", 3, time.Minute)

	c.Delete("series:AAPL")
	if _, ok := c.Get("series:AAPL"); ok {
		t.Fatalf("deleted key still present")
	}
	if n := c.DeletePrefix("series:"); n != 1 {
		t.Fatalf("DeletePrefix removed %d, want 1", n)
	}
	if _, ok := c.Get("other"); !ok {
		t.Fatalf("unrelated key removed")
	}
	if len(c.m) != 1 {
		t.Fatalf("%d entries left, want 1", len(c.m))
	}
}

func TestTTLCacheBytes(t *testing.T) {
	var bc BytesCache = NewTTLCache()
	if err := bc.SetBytes("k", []byte("abc"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := bc.GetBytes("k")
	if err != nil || !ok || string(b) != "abc" {
		t.Fatalf("get = %q %v %v", b, ok, err)
	}
	_ = bc.DeleteBytes("k")
	if _, ok, _ := bc.GetBytes("k"); ok {
		t.Fatalf("expected miss after delete")
	}
}
