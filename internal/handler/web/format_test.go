package web

import (
	"math"
	"testing"
	"time"
)

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{5.5, "$5.50"},
		{189.987, "$189.99"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-42.1, "-$42.10"},
		{math.NaN(), "n/a"},
	}
	for _, tt := range tests {
		if got := Money(tt.in); got != tt.want {
			t.Errorf("Money(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{999, "999"},
		{1000, "1,000"},
		{12345678, "12,345,678"},
		{1500.6, "1,501"},
		{math.Inf(1), "n/a"},
	}
	for _, tt := range tests {
		if got := Quantity(tt.in); got != tt.want {
			t.Errorf("Quantity(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFixedAndStamp(t *testing.T) {
	if got := Fixed(0.123456, 4); got != "0.1235" {
		t.Errorf("Fixed = %q", got)
	}
	if got := Stamp(time.Time{}); got != "n/a" {
		t.Errorf("Stamp(zero) = %q", got)
	}
	if got := Stamp(time.Date(2024, 3, 15, 16, 0, 0, 0, time.UTC)); got != "2024-03-15 16:00" {
		t.Errorf("Stamp = %q", got)
	}
}
