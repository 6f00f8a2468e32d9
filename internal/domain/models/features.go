package models

import "time"

// FeatureNames is the column order of FeatureRow.Vector.
var FeatureNames = []string{"MA_3", "MA_7", "Lag_1", "Lag_2", "Lag_3"}

// FeatureRow is one supervised-learning row. MA3/MA7 average the closes
// preceding the row; LagK is the close K bars before it. Close is the target
// (NaN for a forward row whose close is not yet known).
type FeatureRow struct {
	Time  time.Time `json:"time"`
	Close float64   `json:"close"`
	MA3   float64   `json:"ma_3"`
	MA7   float64   `json:"ma_7"`
	Lag1  float64   `json:"lag_1"`
	Lag2  float64   `json:"lag_2"`
	Lag3  float64   `json:"lag_3"`
}

// Vector returns the five model inputs in FeatureNames order.
func (r FeatureRow) Vector() []float64 {
	return []float64{r.MA3, r.MA7, r.Lag1, r.Lag2, r.Lag3}
}
