package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"StockInsight/internal/domain/models"
	domrepo "StockInsight/internal/domain/repository"
	"StockInsight/internal/domain/service"
	"StockInsight/internal/services/features"
	applogger "StockInsight/pkg/logger"

	"gonum.org/v1/gonum/floats"
)

// ErrInsufficientHistory means the series is too short to train and test.
var ErrInsufficientHistory = errors.New("insufficient price history")

// MinFeatureRows is the smallest row count that leaves a test segment and
// more than one training row.
const MinFeatureRows = 8

// DefaultTestFraction is the share of rows held out for evaluation.
const DefaultTestFraction = 0.2

// TrainResult is a fitted model and its evaluation on the held-out rows.
type TrainResult struct {
	Model              service.Regressor
	TrainRows          int
	Test               []models.TestPoint
	LastTestPrediction float64
	MAE                float64
	RMSE               float64
}

// Trainer fits a fresh regressor per call. The model learns the one-step
// change of the close so trending series can move past their history.
type Trainer struct {
	newModel     func() service.Regressor
	testFraction float64
}

func NewTrainer(newModel func() service.Regressor, testFraction float64) *Trainer {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}
	return &Trainer{newModel: newModel, testFraction: testFraction}
}

// SplitChronological keeps row order: the last ceil(fraction*n) rows are the
// test segment, clamped so both segments are non-empty.
func SplitChronological(rows []models.FeatureRow, fraction float64) (train, test []models.FeatureRow) {
	n := len(rows)
	if n < 2 {
		return rows, nil
	}
	nTest := int(math.Ceil(fraction * float64(n)))
	if nTest < 1 {
		nTest = 1
	}
	if nTest > n-1 {
		nTest = n - 1
	}
	return rows[:n-nTest], rows[n-nTest:]
}

// Train splits rows, fits a new model and scores it on the test segment.
func (t *Trainer) Train(rows []models.FeatureRow) (*TrainResult, error) {
	if len(rows) < MinFeatureRows {
		return nil, fmt.Errorf("%w: %d usable rows, need %d", ErrInsufficientHistory, len(rows), MinFeatureRows)
	}
	train, test := SplitChronological(rows, t.testFraction)

	X, y := features.Matrix(train)
	for i, r := range train {
		y[i] -= r.Lag1
	}
	model := t.newModel()
	if err := model.Fit(X, y); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}

	actual := make([]float64, len(test))
	predicted := make([]float64, len(test))
	points := make([]models.TestPoint, len(test))
	for i, r := range test {
		actual[i] = r.Close
		predicted[i] = r.Lag1 + model.Predict(r.Vector())
		points[i] = models.TestPoint{Time: r.Time, Actual: actual[i], Predicted: predicted[i]}
	}
	n := float64(len(test))

	return &TrainResult{
		Model:              model,
		TrainRows:          len(train),
		Test:               points,
		LastTestPrediction: predicted[len(predicted)-1],
		MAE:                floats.Distance(predicted, actual, 1) / n,
		RMSE:               floats.Distance(predicted, actual, 2) / math.Sqrt(n),
	}, nil
}

// PredictNext forecasts the close of the period after the last bar.
func (t *Trainer) PredictNext(model service.Regressor, bars []models.Bar) (float64, error) {
	row, ok := features.Forward(bars)
	if !ok {
		return math.NaN(), fmt.Errorf("%w: no complete feature row at the end of the series", ErrInsufficientHistory)
	}
	change := model.Predict(row.Vector())
	if math.IsNaN(change) {
		return math.NaN(), fmt.Errorf("model returned no prediction")
	}
	return row.Lag1 + change, nil
}

// Forecaster runs feature building, training and prediction for a series.
type Forecaster struct {
	trainer   *Trainer
	publisher domrepo.ForecastPublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
	now       func() time.Time
}

func NewForecaster(trainer *Trainer, publisher domrepo.ForecastPublisher, mx domrepo.Metrics, l *applogger.Logger) *Forecaster {
	if mx == nil {
		mx = nopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Forecaster{trainer: trainer, publisher: publisher, metrics: mx, log: l, now: time.Now}
}

// Run retrains on the full series and predicts the next close. A failed
// publish is logged and does not fail the forecast.
func (f *Forecaster) Run(ctx context.Context, s *models.Series) (*models.Forecast, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("%w: empty series", ErrInsufficientHistory)
	}
	start := time.Now()
	rows := features.Build(s.Bars)
	res, err := f.trainer.Train(rows)
	if err != nil {
		if !errors.Is(err, ErrInsufficientHistory) {
			f.metrics.RecordError("train")
		}
		return nil, err
	}
	next, err := f.trainer.PredictNext(res.Model, s.Bars)
	if err != nil {
		return nil, err
	}
	f.metrics.RecordLatency("train", time.Since(start).Seconds())

	last, _ := s.Last()
	fc := &models.Forecast{
		Symbol:             s.Symbol,
		LastClose:          last.Close,
		NextClose:          next,
		LastTestPrediction: res.LastTestPrediction,
		MAE:                res.MAE,
		RMSE:               res.RMSE,
		TrainRows:          res.TrainRows,
		TestRows:           len(res.Test),
		Test:               res.Test,
		GeneratedAt:        f.now(),
	}
	f.metrics.RecordForecast(s.Symbol, next)
	f.log.Debug("forecast ready",
		applogger.String("symbol", s.Symbol),
		applogger.Float64("next_close", next),
		applogger.Float64("mae", res.MAE),
		applogger.Float64("rmse", res.RMSE),
		applogger.Int("rows", len(rows)),
	)

	if f.publisher != nil {
		if err := f.publisher.Publish(ctx, fc); err != nil {
			f.metrics.RecordError("publish")
			f.log.Warn("forecast publish failed", applogger.String("symbol", s.Symbol), applogger.Error(err))
		}
	}
	return fc, nil
}
