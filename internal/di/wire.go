//go:build wireinject
// +build wireinject

package di

import (
	"StockInsight/pkg/config"
	"StockInsight/pkg/server"

	"github.com/google/wire"
)

var marketSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideKeyRotator,
	ProvideBarFetcher,
	ProvideSharedCache,
	ProvideMarketData,
)

var forecastSet = wire.NewSet(
	ProvideTrainer,
	ProvideForecastPublisher,
	ProvideForecaster,
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		marketSet,
		forecastSet,

		// Use cases
		ProvideOverview,
		ProvideDetail,
		ProvideWarmup,

		// HTTP
		ProvideRefreshLimiter,
		ProvideHandlers,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}

// InitializePredictor wires the one-shot predict command.
func InitializePredictor(cfg *config.Config) (*Predictor, error) {
	wire.Build(
		marketSet,
		forecastSet,
		ProvidePredictor,
	)
	return &Predictor{}, nil
}
