package di

import (
	"context"
	"fmt"
	"time"

	"StockInsight/internal/domain/repository"
	"StockInsight/internal/domain/service"
	"StockInsight/internal/handler/api"
	"StockInsight/internal/handler/web"
	internalrepo "StockInsight/internal/repository"
	"StockInsight/internal/service/alphavantage"
	"StockInsight/internal/service/cache"
	"StockInsight/internal/service/credentials"
	"StockInsight/internal/service/ratelimit"
	"StockInsight/internal/services/forest"
	"StockInsight/internal/usecase"
	"StockInsight/pkg/config"
	xhttp "StockInsight/pkg/http"
	pkgkafka "StockInsight/pkg/kafka"
	applogger "StockInsight/pkg/logger"
	"StockInsight/pkg/metrics"
	"StockInsight/pkg/server"
	"StockInsight/pkg/util"
)

// Predictor bundles what the one-shot predict command needs.
type Predictor struct {
	Data       *usecase.MarketData
	Forecaster *usecase.Forecaster
	Publisher  repository.ForecastPublisher
	shared     *cache.RedisCache
}

// Close flushes the publisher and drops the Redis connection.
func (p *Predictor) Close() error {
	err := p.Publisher.Close()
	if p.shared != nil {
		if cerr := p.shared.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New(nil)
}

// ProvideKeyRotator cycles the configured Alpha Vantage keys.
func ProvideKeyRotator(cfg *config.Config) (*credentials.Rotator, error) {
	r, err := credentials.NewRotator(cfg.AlphaVantage.APIKeys)
	if err != nil {
		return nil, fmt.Errorf("api keys: %w", err)
	}
	return r, nil
}

// ProvideBarFetcher creates the Alpha Vantage client.
func ProvideBarFetcher(cfg *config.Config) (repository.BarFetcher, error) {
	loc, err := util.LoadLocation(cfg.AlphaVantage.Timezone)
	if err != nil {
		return nil, fmt.Errorf("alphavantage timezone: %w", err)
	}
	return alphavantage.New(
		alphavantage.WithBaseURL(cfg.AlphaVantage.BaseURL),
		alphavantage.WithOutputSize(cfg.AlphaVantage.OutputSize),
		alphavantage.WithLocation(loc),
		alphavantage.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.AlphaVantage.Timeout))),
	), nil
}

// ProvideSharedCache connects to Redis when enabled; nil otherwise.
func ProvideSharedCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
	}
	return rc, nil
}

// ProvideMarketData builds the cached series loader.
func ProvideMarketData(
	cfg *config.Config,
	fetcher repository.BarFetcher,
	keys *credentials.Rotator,
	shared *cache.RedisCache,
	mx repository.Metrics,
	l *applogger.Logger,
) *usecase.MarketData {
	opts := []usecase.MarketDataOption{
		usecase.WithTTL(cfg.Dashboard.CacheTTL),
		usecase.WithInterval(repository.NormalizeInterval(cfg.AlphaVantage.Interval)),
		usecase.WithKnownSymbols(cfg.Dashboard.Symbols),
		usecase.WithMetrics(mx),
		usecase.WithLogger(l.With(applogger.String("component", "market_data"))),
	}
	// a nil *RedisCache must not reach the BytesCache interface
	if shared != nil {
		opts = append(opts, usecase.WithSharedCache(shared, cfg.Redis.Prefix))
	}
	return usecase.NewMarketData(fetcher, keys, cache.NewTTLCache(), opts...)
}

// ProvideTrainer creates a trainer growing a fresh forest per call.
func ProvideTrainer(cfg *config.Config) *usecase.Trainer {
	fc := forest.DefaultConfig()
	fc.Trees = cfg.Model.Trees
	fc.Seed = cfg.Model.Seed
	return usecase.NewTrainer(func() service.Regressor { return forest.New(fc) }, cfg.Model.TestFraction)
}

// ProvideForecastPublisher publishes to Kafka when enabled.
func ProvideForecastPublisher(cfg *config.Config) (repository.ForecastPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithAutoCreateTopic(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideForecaster creates the train-and-predict use case.
func ProvideForecaster(trainer *usecase.Trainer, pub repository.ForecastPublisher, mx repository.Metrics, l *applogger.Logger) *usecase.Forecaster {
	return usecase.NewForecaster(trainer, pub, mx, l)
}

// ProvideOverview creates the multi-symbol comparison use case.
func ProvideOverview(cfg *config.Config, data *usecase.MarketData, mx repository.Metrics, l *applogger.Logger) *usecase.Overview {
	return usecase.NewOverview(data, cfg.Dashboard.Symbols,
		usecase.WithRequestDelay(cfg.Dashboard.RequestDelay),
		usecase.WithOverviewMetrics(mx),
		usecase.WithOverviewLogger(l.With(applogger.String("component", "overview"))),
	)
}

// ProvideDetail creates the single-symbol use case.
func ProvideDetail(cfg *config.Config, data *usecase.MarketData, fc *usecase.Forecaster) *usecase.Detail {
	return usecase.NewDetail(data, fc, cfg.Dashboard.Symbols)
}

// ProvideRefreshLimiter throttles manual cache refreshes.
func ProvideRefreshLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Dashboard.Refresh.Burst, cfg.Dashboard.Refresh.PerSecond)
}

// ProvideHandlers collects the JSON API and the HTML page.
func ProvideHandlers(
	l *applogger.Logger,
	data *usecase.MarketData,
	overview *usecase.Overview,
	detail *usecase.Detail,
	limiter *ratelimit.Limiter,
) []xhttp.Handler {
	return []xhttp.Handler{
		api.NewDashboardEchoHandler(l, data, overview, detail, limiter),
		web.NewPageHandler(l, data, overview, detail, limiter),
	}
}

// ProvideHTTPServer creates the Echo server with every handler registered.
func ProvideHTTPServer(cfg *config.Config, handlers []xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequest(cfg.Server.SlowRequest),
		xhttp.WithLogger(l),
	)
}

// ProvideWarmup schedules background overview refreshes.
func ProvideWarmup(cfg *config.Config, overview *usecase.Overview, l *applogger.Logger) *usecase.WarmupScheduler {
	return usecase.NewWarmupScheduler(cfg.Dashboard.WarmupCron, overview, 0, l.With(applogger.String("component", "warmup")))
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	warmup *usecase.WarmupScheduler,
	pub repository.ForecastPublisher,
	shared *cache.RedisCache,
) *server.App {
	app := server.New(cfg, l, srv, warmup, pub)
	if shared != nil {
		app.AddCloser("redis", shared)
	}
	return app
}

// ProvidePredictor assembles the predict command dependencies.
func ProvidePredictor(data *usecase.MarketData, fc *usecase.Forecaster, pub repository.ForecastPublisher, shared *cache.RedisCache) *Predictor {
	return &Predictor{Data: data, Forecaster: fc, Publisher: pub, shared: shared}
}
