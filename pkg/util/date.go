package util

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MarketTimestampLayout is the upstream bar timestamp format.
	MarketTimestampLayout = "2006-01-02 15:04:05"
	// MinuteLayout is how bar times are shown to users.
	MinuteLayout = "2006-01-02 15:04"
)

// ParseMarketTime parses an upstream bar timestamp as wall time in loc.
// A nil loc means UTC.
func ParseMarketTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(MarketTimestampLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse market time %q: %w", s, err)
	}
	return t, nil
}

// LoadLocation resolves a timezone name, falling back to UTC for "".
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// SameDay reports whether a and b fall on the same calendar date, each in
// its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatMinute renders t as "YYYY-MM-DD HH:MM". The zero time renders empty.
func FormatMinute(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(MinuteLayout)
}
