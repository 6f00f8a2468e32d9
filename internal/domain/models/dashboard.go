package models

import (
	"encoding/json"
	"time"
)

// OverviewRow summarises one symbol for the latest trading date.
type OverviewRow struct {
	Symbol      string    `json:"symbol"`
	LastClose   float64   `json:"last_close"`
	VolumeToday float64   `json:"volume_today"`
	PeakPrice   float64   `json:"peak_price"`
	PeakTime    time.Time `json:"peak_time"`
	DipPrice    float64   `json:"dip_price"`
	DipTime     time.Time `json:"dip_time"`
	HasToday    bool      `json:"has_today"`
}

// LinePoint is one close on a comparison chart.
type LinePoint struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
}

// Overview compares every configured symbol.
type Overview struct {
	Rows        []OverviewRow          `json:"rows"`
	Lines       map[string][]LinePoint `json:"lines"`
	Volumes     map[string]float64     `json:"volumes"`
	TotalVolume float64                `json:"total_volume"`
	TopSymbol   string                 `json:"top_symbol"`
	Failures    map[string]string      `json:"failures,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Detail is the single-symbol view.
type Detail struct {
	Symbol      string    `json:"symbol"`
	LastUpdated string    `json:"last_updated"`
	LastClose   float64   `json:"last_close"`
	PeakToday   float64   `json:"peak_today"`
	Forecast    *Forecast `json:"forecast"`
	FetchedAt   time.Time `json:"fetched_at"`
	FromCache   bool      `json:"from_cache"`
	Series      *Series   `json:"-"`
}

// MarshalJSON writes undefined prices as null.
func (d Detail) MarshalJSON() ([]byte, error) {
	type alias Detail
	return json.Marshal(struct {
		alias
		LastClose *float64 `json:"last_close"`
		PeakToday *float64 `json:"peak_today"`
	}{alias(d), nullable(d.LastClose), nullable(d.PeakToday)})
}
