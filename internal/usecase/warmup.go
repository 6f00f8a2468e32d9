package usecase

import (
	"context"
	"fmt"
	"time"

	applogger "StockInsight/pkg/logger"

	"github.com/robfig/cron/v3"
)

// WarmupScheduler rebuilds the overview on a cron schedule so page views
// find the cache filled.
type WarmupScheduler struct {
	spec     string
	overview *Overview
	timeout  time.Duration
	log      *applogger.Logger
	cron     *cron.Cron
}

// NewWarmupScheduler accepts six-field (with seconds) or descriptor specs
// such as "@every 10m". An empty spec disables the job.
func NewWarmupScheduler(spec string, overview *Overview, timeout time.Duration, l *applogger.Logger) *WarmupScheduler {
	if l == nil {
		l = applogger.Nop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &WarmupScheduler{spec: spec, overview: overview, timeout: timeout, log: l}
}

// Start registers the job and starts the scheduler in the background.
func (w *WarmupScheduler) Start() error {
	if w.spec == "" {
		w.log.Info("warm-up disabled")
		return nil
	}
	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(w.spec, w.run); err != nil {
		return fmt.Errorf("warm-up schedule %q: %w", w.spec, err)
	}
	c.Start()
	w.cron = c
	w.log.Info("warm-up scheduled", applogger.String("spec", w.spec))
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (w *WarmupScheduler) Stop(ctx context.Context) {
	if w.cron == nil {
		return
	}
	done := w.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		w.log.Warn("warm-up still running at shutdown")
	}
}

func (w *WarmupScheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	start := time.Now()
	ov, err := w.overview.Build(ctx)
	if err != nil {
		w.log.Warn("warm-up failed", applogger.Error(err))
		return
	}
	w.log.Info("warm-up done",
		applogger.Int("symbols", len(ov.Rows)),
		applogger.Int("failed", len(ov.Failures)),
		applogger.Duration("took_ms", time.Since(start)),
	)
}
