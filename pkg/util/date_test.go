package util

import (
	"testing"
	"time"
)

func TestParseMarketTime(t *testing.T) {
	loc, err := LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	got, err := ParseMarketTime("2024-03-15 16:00:00", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != loc || got.Hour() != 16 {
		t.Fatalf("unexpected time %v", got)
	}
	if got.UTC().Hour() != 20 {
		t.Fatalf("expected 20:00 UTC (EDT), got %v", got.UTC())
	}
}

func TestParseMarketTimeInvalid(t *testing.T) {
	if _, err := ParseMarketTime("15/03/2024", time.UTC); err == nil {
		t.Fatalf("expected error")
	}
}

func TestParseMarketTimeNilLocation(t *testing.T) {
	got, err := ParseMarketTime("2024-03-15 09:30:00", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	if !SameDay(a, a.Add(6*time.Hour)) {
		t.Fatalf("expected same day")
	}
	if SameDay(a, a.Add(15*time.Hour)) {
		t.Fatalf("expected different day")
	}
}

func TestFormatMinute(t *testing.T) {
	ts := time.Date(2024, 3, 15, 9, 5, 59, 0, time.UTC)
	if got := FormatMinute(ts); got != "2024-03-15 09:05" {
		t.Fatalf("got %q", got)
	}
	if got := FormatMinute(time.Time{}); got != "" {
		t.Fatalf("zero time should render empty, got %q", got)
	}
}
