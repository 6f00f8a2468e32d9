package repository

import (
	"context"

	"StockInsight/internal/domain/models"
)

// BarFetcher retrieves an intraday series for one symbol from the upstream API.
type BarFetcher interface {
	FetchIntraday(ctx context.Context, symbol, apiKey string, interval Interval) (*models.Series, error)
}

// ForecastPublisher emits forecast events to downstream consumers.
type ForecastPublisher interface {
	Publish(ctx context.Context, f *models.Forecast) error
	Close() error
}

type Metrics interface {
	RecordFetch(symbol string, ok bool)
	RecordCache(hit bool)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordForecast(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
