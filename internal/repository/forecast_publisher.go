package repository

import (
	"context"
	"math"
	"time"

	"StockInsight/internal/domain/models"
	drepo "StockInsight/internal/domain/repository"

	"github.com/shopspring/decimal"
)

// messageWriter is the part of pkg/kafka.Producer the publisher needs.
type messageWriter interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// ForecastEvent is the wire form of a forecast. Prices are decimal strings
// rounded to cents; errors keep four decimals.
type ForecastEvent struct {
	Symbol      string           `json:"symbol"`
	LastClose   *decimal.Decimal `json:"last_close"`
	NextClose   *decimal.Decimal `json:"predicted_next_close"`
	MAE         *decimal.Decimal `json:"mae"`
	RMSE        *decimal.Decimal `json:"rmse"`
	TrainRows   int              `json:"train_rows"`
	TestRows    int              `json:"test_rows"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// NewForecastEvent converts a forecast; undefined numbers become null.
func NewForecastEvent(f *models.Forecast) ForecastEvent {
	return ForecastEvent{
		Symbol:      f.Symbol,
		LastClose:   rounded(f.LastClose, 2),
		NextClose:   rounded(f.NextClose, 2),
		MAE:         rounded(f.MAE, 4),
		RMSE:        rounded(f.RMSE, 4),
		TrainRows:   f.TrainRows,
		TestRows:    f.TestRows,
		GeneratedAt: f.GeneratedAt,
	}
}

// KafkaForecastPublisher implements ForecastPublisher for Kafka, keyed by
// symbol so one symbol's forecasts stay ordered.
type KafkaForecastPublisher struct {
	producer messageWriter
	topic    string
}

// NewKafkaForecastPublisher creates Kafka publisher.
func NewKafkaForecastPublisher(producer messageWriter, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: producer, topic: topic}
}

var _ drepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)

func (p *KafkaForecastPublisher) Publish(ctx context.Context, f *models.Forecast) error {
	return p.producer.Publish(ctx, p.topic, []byte(f.Symbol), NewForecastEvent(f))
}

func (p *KafkaForecastPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops forecasts; used when Kafka is disabled.
type NoopPublisher struct{}

var _ drepo.ForecastPublisher = NoopPublisher{}

func (NoopPublisher) Publish(context.Context, *models.Forecast) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }

func rounded(v float64, places int32) *decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	d := decimal.NewFromFloat(v).Round(places)
	return &d
}
