package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"StockInsight/internal/di"
	"StockInsight/internal/domain/repository"
	"StockInsight/pkg/config"

	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/config.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "stockinsight",
		Short:         "Intraday stock dashboard with next-close forecasts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", defaultConfigPath, "config file path")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPredictCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard server until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			app, err := di.InitializeApp(cfg)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			return app.Run()
		},
	}
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict SYMBOL",
		Short: "Fetch, train and predict the next close for one symbol",
		Example: `  stockinsight predict AAPL
  stockinsight predict MSFT --interval 15min`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			interval, _ := cmd.Flags().GetString("interval")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			p, err := di.InitializePredictor(cfg)
			if err != nil {
				return fmt.Errorf("predictor initialization failed: %w", err)
			}
			defer p.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPredict(ctx, p, args[0], interval)
		},
	}
	cmd.Flags().String("interval", string(repository.DefaultInterval()), "bar interval: 1min, 5min, 15min, 30min or 60min")
	return cmd
}

func runPredict(ctx context.Context, p *di.Predictor, symbol, interval string) error {
	iv := repository.Interval(interval)
	if !repository.IsValidInterval(iv) {
		return fmt.Errorf("unsupported interval %q", interval)
	}
	s, _, err := p.Data.LoadInterval(ctx, symbol, iv)
	if err != nil {
		return err
	}
	fc, err := p.Forecaster.Run(ctx, s)
	if err != nil {
		return err
	}
	fmt.Println(renderReport(fc, iv))
	return nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if _, err := os.Stat(path); err != nil && path == defaultConfigPath {
		// defaults plus environment when the default file is absent
		path = ""
	}
	cfg, err := config.LoadWithEnv(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	return cfg, nil
}
