package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"StockInsight/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string        `yaml:"environment" default:"development"`
	Logger      logger.Config `yaml:"logger"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"120s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"5s"`
	} `yaml:"server"`
	AlphaVantage struct {
		BaseURL    string        `yaml:"base_url" default:"https://www.alphavantage.co/query"`
		APIKeys    []string      `yaml:"api_keys"`
		Interval   string        `yaml:"interval" default:"60min"`
		OutputSize string        `yaml:"output_size" default:"full"`
		Timezone   string        `yaml:"timezone" default:"America/New_York"`
		Timeout    time.Duration `yaml:"timeout" default:"30s"`
	} `yaml:"alphavantage"`
	Dashboard struct {
		Symbols      []string      `yaml:"symbols" default:"[\"AAPL\",\"MSFT\",\"GOOGL\",\"AMZN\",\"META\",\"TSLA\"]"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"10m"`
		RequestDelay time.Duration `yaml:"request_delay" default:"12s"`
		WarmupCron   string        `yaml:"warmup_cron"`
		Refresh      struct {
			Burst     float64 `yaml:"burst" default:"3"`
			PerSecond float64 `yaml:"per_second" default:"0.05"`
		} `yaml:"refresh"`
	} `yaml:"dashboard"`
	Model struct {
		Trees        int     `yaml:"trees" default:"100"`
		Seed         int64   `yaml:"seed" default:"42"`
		TestFraction float64 `yaml:"test_fraction" default:"0.2"`
	} `yaml:"model"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"stockinsight:"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"stockinsight.forecasts"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"100ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
}

var validIntervals = []string{"1min", "5min", "15min", "30min", "60min"}

// Load reads a YAML configuration file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads .env (if present) and the YAML file, then overrides
// with environment variables before validating.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHAVANTAGE_API_KEYS"); v != "" {
		c.AlphaVantage.APIKeys = splitList(v)
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Dashboard.Symbols = splitList(v)
	}
	if v := os.Getenv("STOCKINSIGHT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("STOCKINSIGHT_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// parse reads path (an empty path means defaults only) and fills defaults.
func parse(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.AlphaVantage.APIKeys) == 0 {
		return fmt.Errorf("alphavantage.api_keys cannot be empty")
	}
	for i, k := range c.AlphaVantage.APIKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("alphavantage.api_keys[%d] is empty", i)
		}
	}
	if !contains(validIntervals, c.AlphaVantage.Interval) {
		return fmt.Errorf("alphavantage.interval must be one of %s, got '%s'", strings.Join(validIntervals, ", "), c.AlphaVantage.Interval)
	}
	if len(c.Dashboard.Symbols) == 0 {
		return fmt.Errorf("dashboard.symbols cannot be empty")
	}
	if c.Dashboard.CacheTTL <= 0 {
		return fmt.Errorf("dashboard.cache_ttl must be positive")
	}
	if c.Dashboard.RequestDelay < 0 {
		return fmt.Errorf("dashboard.request_delay cannot be negative")
	}
	if c.Model.Trees <= 0 {
		return fmt.Errorf("model.trees must be positive")
	}
	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("model.test_fraction must be in (0, 1)")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	return nil
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
