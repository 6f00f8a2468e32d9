package models

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestBarJSONKeepsMissingValues(t *testing.T) {
	in := Bar{Time: time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0.5, Close: math.NaN(), Volume: 100}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"c":null`) {
		t.Fatalf("expected null close, got %s", b)
	}

	var out Bar
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !math.IsNaN(out.Close) {
		t.Fatalf("close = %v, want NaN", out.Close)
	}
	if out.High != 2 || !out.Time.Equal(in.Time) {
		t.Fatalf("unexpected bar %+v", out)
	}
}

func TestSeriesTail(t *testing.T) {
	s := &Series{}
	for i := 0; i < 5; i++ {
		s.Bars = append(s.Bars, Bar{Close: float64(i)})
	}
	if got := s.Tail(2); len(got) != 2 || got[0].Close != 3 {
		t.Fatalf("tail(2) = %+v", got)
	}
	if got := s.Tail(10); len(got) != 5 {
		t.Fatalf("tail(10) len = %d", len(got))
	}
	if last, ok := s.Last(); !ok || last.Close != 4 {
		t.Fatalf("last = %+v %v", last, ok)
	}
	var empty *Series
	if _, ok := empty.Last(); ok {
		t.Fatalf("nil series has no last bar")
	}
}

func TestDetailJSONNullsMissingPrices(t *testing.T) {
	d := Detail{Symbol: "AAPL", LastClose: math.NaN(), PeakToday: 191.5, Series: &Series{Symbol: "AAPL"}}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	for _, want := range []string{`"last_close":null`, `"peak_today":191.5`, `"symbol":"AAPL"`} {
		if !strings.Contains(got, want) {
			t.Errorf("%s missing %s", got, want)
		}
	}
	if strings.Contains(got, "bars") {
		t.Errorf("series must not be serialized: %s", got)
	}
}
