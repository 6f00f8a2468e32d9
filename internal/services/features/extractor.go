package features

import (
	"math"

	"StockInsight/internal/domain/models"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	ShortWindow = 3
	LongWindow  = 7
	// WarmUp is the number of leading bars that can never produce a row:
	// every row needs LongWindow closes before it.
	WarmUp = LongWindow
)

// MovingAverage computes a trailing simple moving average that includes the
// current value. Positions without n values, or whose window holds a NaN,
// are NaN.
func MovingAverage(values []float64, n int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if n <= 0 || i+1 < n {
			out[i] = math.NaN()
			continue
		}
		w := values[i+1-n : i+1]
		if floats.HasNaN(w) {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(w, nil)
	}
	return out
}

// Build derives one feature row per bar that has WarmUp predecessors.
// Rows with any undefined input or target are dropped. The input is not
// modified and the result depends on nothing else.
func Build(bars []models.Bar) []models.FeatureRow {
	closes := models.Closes(bars)
	if len(closes) <= WarmUp {
		return nil
	}
	rows := make([]models.FeatureRow, 0, len(closes)-WarmUp)
	for i := WarmUp; i < len(closes); i++ {
		row, ok := rowAt(closes, i)
		if !ok || math.IsNaN(closes[i]) {
			continue
		}
		row.Time = bars[i].Time
		row.Close = closes[i]
		rows = append(rows, row)
	}
	return rows
}

// Forward returns the feature row for the period after the last bar, built
// from the most recent closes. Its Close is NaN (not yet observed) and its
// Time is the last bar's time.
func Forward(bars []models.Bar) (models.FeatureRow, bool) {
	closes := models.Closes(bars)
	row, ok := rowAt(closes, len(closes))
	if !ok {
		return models.FeatureRow{}, false
	}
	row.Time = bars[len(bars)-1].Time
	row.Close = math.NaN()
	return row, true
}

// Matrix splits rows into the model design matrix and the close targets.
func Matrix(rows []models.FeatureRow) ([][]float64, []float64) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i, r := range rows {
		X[i] = r.Vector()
		y[i] = r.Close
	}
	return X, y
}

// rowAt computes the features of position i from closes[i-LongWindow:i].
func rowAt(closes []float64, i int) (models.FeatureRow, bool) {
	if i < WarmUp || i > len(closes) {
		return models.FeatureRow{}, false
	}
	long := closes[i-LongWindow : i]
	if floats.HasNaN(long) {
		return models.FeatureRow{}, false
	}
	short := closes[i-ShortWindow : i]
	return models.FeatureRow{
		MA3:  stat.Mean(short, nil),
		MA7:  stat.Mean(long, nil),
		Lag1: closes[i-1],
		Lag2: closes[i-2],
		Lag3: closes[i-3],
	}, true
}
