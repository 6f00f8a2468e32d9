package repository

// Interval is the spacing between consecutive intraday bars.
type Interval string

const (
	Interval1m  Interval = "1min"
	Interval5m  Interval = "5min"
	Interval15m Interval = "15min"
	Interval30m Interval = "30min"
	Interval60m Interval = "60min"
)

// IsValidInterval returns true if iv is supported by the intraday endpoint.
func IsValidInterval(iv Interval) bool {
	switch iv {
	case Interval1m, Interval5m, Interval15m, Interval30m, Interval60m:
		return true
	default:
		return false
	}
}

// DefaultInterval returns the default (hourly) interval.
func DefaultInterval() Interval { return Interval60m }

// NormalizeInterval converts raw string to a valid interval (or default).
func NormalizeInterval(s string) Interval {
	if s == "" {
		return DefaultInterval()
	}
	iv := Interval(s)
	if IsValidInterval(iv) {
		return iv
	}
	return DefaultInterval()
}

// Intervals lists every supported interval, shortest first.
func Intervals() []Interval {
	return []Interval{Interval1m, Interval5m, Interval15m, Interval30m, Interval60m}
}
