package repository

import "testing"

func TestNormalizeInterval(t *testing.T) {
	tests := []struct {
		in   string
		want Interval
	}{
		{"", Interval60m},
		{"5min", Interval5m},
		{"15min", Interval15m},
		{"2h", Interval60m},
	}
	for _, tt := range tests {
		if got := NormalizeInterval(tt.in); got != tt.want {
			t.Errorf("NormalizeInterval(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
