package features

import (
	"math"
	"reflect"
	"testing"
	"time"

	"StockInsight/internal/domain/models"
)

// ascending returns n hourly bars with close = start + i.
func ascending(n int, start float64) []models.Bar {
	t0 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		c := start + float64(i)
		bars[i] = models.Bar{Time: t0.Add(time.Duration(i) * time.Hour), Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	}
	return bars
}

func TestBuildThirtyAscendingBars(t *testing.T) {
	bars := ascending(30, 100)
	rows := Build(bars)

	if len(rows) != 23 {
		t.Fatalf("rows = %d, want 23", len(rows))
	}
	first := rows[0]
	if !first.Time.Equal(bars[7].Time) {
		t.Fatalf("first row time = %v, want %v", first.Time, bars[7].Time)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"close", first.Close, 107},
		{"MA_3", first.MA3, 105},
		{"MA_7", first.MA7, 103},
		{"Lag_1", first.Lag1, 106},
		{"Lag_2", first.Lag2, 105},
		{"Lag_3", first.Lag3, 104},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestBuildNeverEmitsUndefinedValues(t *testing.T) {
	bars := ascending(30, 50)
	bars[12].Close = math.NaN()

	rows := Build(bars)
	// Bar 12 poisons its own row (target) and rows 13..19 (inputs).
	if len(rows) != 15 {
		t.Fatalf("rows = %d, want 15", len(rows))
	}
	for _, r := range rows {
		for j, v := range append(r.Vector(), r.Close) {
			if math.IsNaN(v) {
				t.Fatalf("row %v has undefined value at column %d", r.Time, j)
			}
		}
	}
}

func TestBuildIsDeterministicAndPure(t *testing.T) {
	bars := ascending(40, 10)
	snapshot := append([]models.Bar(nil), bars...)

	a := Build(bars)
	b := Build(bars)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two builds differ")
	}
	if !reflect.DeepEqual(bars, snapshot) {
		t.Fatalf("input bars were modified")
	}
}

func TestBuildShortHistory(t *testing.T) {
	if rows := Build(ascending(7, 1)); len(rows) != 0 {
		t.Fatalf("7 bars should give no rows, got %d", len(rows))
	}
	if rows := Build(ascending(8, 1)); len(rows) != 1 {
		t.Fatalf("8 bars should give one row, got %d", len(rows))
	}
	if rows := Build(nil); rows != nil {
		t.Fatalf("nil input should give nil")
	}
}

func TestForward(t *testing.T) {
	bars := ascending(30, 100)
	row, ok := Forward(bars)
	if !ok {
		t.Fatalf("expected forward row")
	}
	if row.Lag1 != 129 || row.Lag3 != 127 {
		t.Fatalf("lags = %v/%v", row.Lag1, row.Lag3)
	}
	if math.Abs(row.MA3-128) > 1e-9 || math.Abs(row.MA7-126) > 1e-9 {
		t.Fatalf("ma = %v/%v", row.MA3, row.MA7)
	}
	if !math.IsNaN(row.Close) {
		t.Fatalf("forward close should be unknown")
	}
	if !row.Time.Equal(bars[29].Time) {
		t.Fatalf("forward time = %v", row.Time)
	}

	if _, ok := Forward(ascending(6, 1)); ok {
		t.Fatalf("6 bars cannot produce a forward row")
	}
	gap := ascending(10, 1)
	gap[9].Close = math.NaN()
	if _, ok := Forward(gap); ok {
		t.Fatalf("a missing recent close must block the forward row")
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, math.NaN(), 6}, 3)
	want := []float64{math.NaN(), math.NaN(), 2, 3, math.NaN(), math.NaN()}
	for i := range want {
		if math.IsNaN(want[i]) != math.IsNaN(got[i]) || (!math.IsNaN(want[i]) && math.Abs(got[i]-want[i]) > 1e-9) {
			t.Fatalf("ma[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMatrix(t *testing.T) {
	rows := Build(ascending(10, 0))
	X, y := Matrix(rows)
	if len(X) != 3 || len(y) != 3 {
		t.Fatalf("shape = %d/%d", len(X), len(y))
	}
	if len(X[0]) != len(models.FeatureNames) {
		t.Fatalf("width = %d", len(X[0]))
	}
	if y[0] != 7 || X[0][2] != 6 {
		t.Fatalf("unexpected first row %v -> %v", X[0], y[0])
	}
}
