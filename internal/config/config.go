package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"swingwatch/internal/backtest"
	"swingwatch/internal/classify"
	"swingwatch/pkg/logger"
)

// Config represents the application configuration
type Config struct {
	Provider   ProviderConfig      `yaml:"provider"`
	Scanner    ScannerConfig       `yaml:"scanner"`
	Thresholds classify.Thresholds `yaml:"thresholds"`
	Backtest   backtest.Config     `yaml:"backtest"`
	Store      StoreConfig         `yaml:"store"`
	Log        logger.Config       `yaml:"log"`
}

// ProviderConfig selects market-data sources, tried in order
type ProviderConfig struct {
	Sources []string     `yaml:"sources" default:"[\"yahoo\"]" validate:"min=1,dive,oneof=yahoo finnhub csv"`
	Yahoo   SourceConfig `yaml:"yahoo"`
	Finnhub SourceConfig `yaml:"finnhub"`
	CSVDir  string       `yaml:"csv_dir" default:"data/candles"`
	Cache   bool         `yaml:"cache" default:"true"`
}

// SourceConfig holds individual provider settings
type SourceConfig struct {
	Key       string `yaml:"key"`
	RateLimit int    `yaml:"rate_limit" default:"60" validate:"gt=0"` // requests per minute
}

// ScannerConfig holds scanner settings
type ScannerConfig struct {
	Workers     int           `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
	Timeout     time.Duration `yaml:"timeout" default:"5m" validate:"gt=0"`           // whole scan
	HistoryDays int           `yaml:"history_days" default:"1825" validate:"gte=120"` // calendar days per symbol, also the robustness window
}

// StoreConfig configures persistence and the backtest result cache
type StoreConfig struct {
	Path          string        `yaml:"path" default:"data/swingwatch.db" validate:"required"`
	Cache         string        `yaml:"cache" default:"sqlite" validate:"oneof=sqlite redis none"`
	RedisAddr     string        `yaml:"redis_addr" default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
	CacheTTL      time.Duration `yaml:"cache_ttl" default:"24h" validate:"gt=0"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cfg := &Config{
		Thresholds: classify.DefaultThresholds(),
		Backtest:   backtest.DefaultConfig(),
	}
	if err := defaults.Set(cfg); err != nil {
		// tags are static; a failure here is a programming error
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment variables override file values. A .env file next to
// the config file fills variables that are not already set.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SWINGWATCH_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("SWINGWATCH_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
		cfg.Store.Cache = "redis"
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		cfg.Provider.Finnhub.Key = v
	}
	if v := os.Getenv("SWINGWATCH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
}

var validate = validator.New()

// Validate checks field constraints and the ordering of the zone thresholds
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	t := c.Thresholds
	if !(t.NearPct < t.ApproachingPct && t.ApproachingPct < t.FarPct) {
		return fmt.Errorf("invalid config: proximity thresholds must satisfy near < approaching < far")
	}
	if !(t.RSIWeakBelow <= t.RSICalmMax && t.RSICalmMax <= t.RSIWarmMax) {
		return fmt.Errorf("invalid config: rsi thresholds must satisfy weak <= calm <= warm")
	}
	if t.VolumeLowBelow > t.VolumeHighAbove {
		return fmt.Errorf("invalid config: volume_low_below must not exceed volume_high_above")
	}
	for _, src := range c.Provider.Sources {
		if src == "finnhub" && c.Provider.Finnhub.Key == "" {
			return fmt.Errorf("invalid config: finnhub source requires a key (FINNHUB_API_KEY)")
		}
	}
	return nil
}
