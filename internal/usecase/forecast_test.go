package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"StockInsight/internal/domain/models"
	"StockInsight/internal/domain/service"
	"StockInsight/internal/services/features"
	"StockInsight/internal/services/forest"
)

func defaultForest() service.Regressor { return forest.New(forest.DefaultConfig()) }

func TestForecastLinearSeries(t *testing.T) {
	bars := hourlyBars(30, t0, linear(100, 1))
	rows := features.Build(bars)
	if len(rows) != 23 {
		t.Fatalf("rows = %d, want 23", len(rows))
	}

	fc, err := NewForecaster(NewTrainer(defaultForest, 0.2), nil, nil, nil).
		Run(context.Background(), &models.Series{Symbol: "AAPL", Bars: bars})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fc.NextClose <= fc.LastClose {
		t.Fatalf("next close %.4f should exceed last close %.4f", fc.NextClose, fc.LastClose)
	}
	if !approx(fc.NextClose, 130, 1e-9) {
		t.Fatalf("next close = %.6f, want 130", fc.NextClose)
	}
	if fc.TrainRows != 18 || fc.TestRows != 5 || len(fc.Test) != 5 {
		t.Fatalf("split %d/%d (points %d), want 18/5", fc.TrainRows, fc.TestRows, len(fc.Test))
	}
	if fc.MAE > 1e-9 || fc.RMSE > 1e-9 {
		t.Fatalf("a constant step should be learned exactly, mae=%g rmse=%g", fc.MAE, fc.RMSE)
	}
	if fc.LastTestPrediction != fc.Test[len(fc.Test)-1].Predicted {
		t.Fatalf("last test prediction mismatch")
	}
}

func TestForecastIsDeterministic(t *testing.T) {
	bars := hourlyBars(60, t0, func(i int) float64 { return 50 + float64(i) + 3*math.Sin(float64(i)/2) })
	s := &models.Series{Symbol: "MSFT", Bars: bars}
	f := NewForecaster(NewTrainer(smallForest, 0.2), nil, nil, nil)

	a, err := f.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	b, err := f.Run(context.Background(), s)
	if err != nil {
		t.Fatalf("rerun: %v", err)
	}
	if a.NextClose != b.NextClose || a.MAE != b.MAE || a.RMSE != b.RMSE {
		t.Fatalf("runs differ: %+v vs %+v", a, b)
	}
}

func TestForecastStaysNearHistory(t *testing.T) {
	bars := hourlyBars(80, t0, func(i int) float64 { return 100 + float64(i) + 0.5*math.Sin(float64(i)) })
	closes := models.Closes(bars)
	lo, hi, maxStep := math.Inf(1), math.Inf(-1), 0.0
	for i, c := range closes {
		lo, hi = math.Min(lo, c), math.Max(hi, c)
		if i > 0 {
			maxStep = math.Max(maxStep, c-closes[i-1])
		}
	}

	fc, err := NewForecaster(NewTrainer(smallForest, 0.2), nil, nil, nil).
		Run(context.Background(), &models.Series{Symbol: "AMZN", Bars: bars})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if fc.NextClose < lo || fc.NextClose > hi+maxStep {
		t.Fatalf("next close %.3f outside [%.3f, %.3f]", fc.NextClose, lo, hi+maxStep)
	}
}

func TestSplitChronological(t *testing.T) {
	tests := []struct {
		n, train, test int
	}{
		{n: 23, train: 18, test: 5},
		{n: 10, train: 8, test: 2},
		{n: 8, train: 6, test: 2},
		{n: 2, train: 1, test: 1},
	}
	for _, tt := range tests {
		rows := features.Build(hourlyBars(tt.n+7, t0, linear(10, 1)))
		if len(rows) != tt.n {
			t.Fatalf("setup: rows = %d, want %d", len(rows), tt.n)
		}
		train, test := SplitChronological(rows, 0.2)
		if len(train) != tt.train || len(test) != tt.test {
			t.Errorf("n=%d: split %d/%d, want %d/%d", tt.n, len(train), len(test), tt.train, tt.test)
			continue
		}
		lastTrain := train[len(train)-1].Time
		for _, r := range test {
			if !r.Time.After(lastTrain) {
				t.Errorf("n=%d: test row %v not after training rows", tt.n, r.Time)
			}
		}
	}
}

func TestTrainInsufficientHistory(t *testing.T) {
	tr := NewTrainer(smallForest, 0.2)
	rows := features.Build(hourlyBars(14, t0, linear(10, 1)))
	if _, err := tr.Train(rows); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}

	f := NewForecaster(tr, nil, nil, nil)
	for _, n := range []int{0, 5, 14} {
		s := &models.Series{Symbol: "X", Bars: hourlyBars(n, t0, linear(10, 1))}
		if _, err := f.Run(context.Background(), s); !errors.Is(err, ErrInsufficientHistory) {
			t.Errorf("n=%d: expected ErrInsufficientHistory, got %v", n, err)
		}
	}
}

func TestPredictNextNeedsRecentCloses(t *testing.T) {
	tr := NewTrainer(smallForest, 0.2)
	bars := hourlyBars(30, t0, linear(100, 1))
	res, err := tr.Train(features.Build(bars))
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	bars[len(bars)-2].Close = math.NaN()
	if _, err := tr.PredictNext(res.Model, bars); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestForecastPublishes(t *testing.T) {
	bars := hourlyBars(30, t0, linear(100, 1))
	pub := &fakePublisher{}
	f := NewForecaster(NewTrainer(smallForest, 0.2), pub, nil, nil)
	if _, err := f.Run(context.Background(), &models.Series{Symbol: "META", Bars: bars}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(pub.sent) != 1 || pub.sent[0].Symbol != "META" {
		t.Fatalf("published %+v", pub.sent)
	}

	pub.err = errors.New("broker down")
	if _, err := f.Run(context.Background(), &models.Series{Symbol: "META", Bars: bars}); err != nil {
		t.Fatalf("publish failure must not fail the forecast: %v", err)
	}
}
