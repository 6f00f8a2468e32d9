package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"StockInsight/internal/domain/repository"
	"StockInsight/internal/usecase"
	"StockInsight/pkg/config"
	xhttp "StockInsight/pkg/http"
	applogger "StockInsight/pkg/logger"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	warmup     *usecase.WarmupScheduler
	publisher  repository.ForecastPublisher
	closers    []namedCloser
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	warmup *usecase.WarmupScheduler,
	pub repository.ForecastPublisher,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        l,
		httpServer: srv,
		warmup:     warmup,
		publisher:  pub,
	}
}

// AddCloser registers an infrastructure client closed last on shutdown.
func (a *App) AddCloser(name string, c io.Closer) {
	a.closers = append(a.closers, namedCloser{name: name, c: c})
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts the HTTP server and the warm-up job, then shuts both
// down once ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	if a.warmup != nil {
		if err := a.warmup.Start(); err != nil {
			a.log.Error("warm-up start error", applogger.Error(err))
			a.shutdown()
			return err
		}
	}
	a.log.Info("dashboard started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.Strings("symbols", a.cfg.Dashboard.Symbols),
		applogger.String("env", a.cfg.Environment),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	a.shutdown()
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// no new warm-up runs; wait for one in flight
	if a.warmup != nil {
		a.warmup.Stop(shutdownCtx)
	}

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("forecast publisher close error", applogger.Error(err))
		}
	}

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("client", nc.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
