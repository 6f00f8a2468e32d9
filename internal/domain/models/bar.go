package models

import (
	"encoding/json"
	"math"
	"time"
)

// Bar is one OHLCV interval. A value that could not be parsed upstream is NaN.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a fetched, time-ascending table of bars for one symbol.
type Series struct {
	Symbol    string    `json:"symbol"`
	Interval  string    `json:"interval"`
	Bars      []Bar     `json:"bars"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Last returns the most recent bar.
func (s *Series) Last() (Bar, bool) {
	if s.Len() == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Tail returns the last n bars (all of them when n exceeds the length).
func (s *Series) Tail(n int) []Bar {
	if n <= 0 || s.Len() == 0 {
		return nil
	}
	if n >= len(s.Bars) {
		return s.Bars
	}
	return s.Bars[len(s.Bars)-n:]
}

// Closes returns the close column.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// barJSON carries missing values as null, since encoding/json rejects NaN.
type barJSON struct {
	Time   time.Time `json:"t"`
	Open   *float64  `json:"o"`
	High   *float64  `json:"h"`
	Low    *float64  `json:"l"`
	Close  *float64  `json:"c"`
	Volume *float64  `json:"v"`
}

func (b Bar) MarshalJSON() ([]byte, error) {
	return json.Marshal(barJSON{
		Time:   b.Time,
		Open:   nullable(b.Open),
		High:   nullable(b.High),
		Low:    nullable(b.Low),
		Close:  nullable(b.Close),
		Volume: nullable(b.Volume),
	})
}

func (b *Bar) UnmarshalJSON(data []byte) error {
	var raw barJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Time = raw.Time
	b.Open = orNaN(raw.Open)
	b.High = orNaN(raw.High)
	b.Low = orNaN(raw.Low)
	b.Close = orNaN(raw.Close)
	b.Volume = orNaN(raw.Volume)
	return nil
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
