package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/gamma"
)

type Config struct {
	Calculator gamma.Params  `mapstructure:"calculator"`
	Walls      WallsConfig   `mapstructure:"walls"`
	Metrics    MetricsConfig `mapstructure:"metrics"`
	Source     SourceConfig  `mapstructure:"source"`
	Batch      BatchConfig   `mapstructure:"batch"`
	Sample     SampleConfig  `mapstructure:"sample"`
	Output     OutputConfig  `mapstructure:"output"`
	Logging    LoggingConfig `mapstructure:"logging"`
}

type WallsConfig struct {
	MinSignificance float64 `mapstructure:"min_significance"`
	MaxWalls        int     `mapstructure:"max_walls"`
	NearbyPct       float64 `mapstructure:"nearby_pct"`
}

type MetricsConfig struct {
	Percentiles []float64 `mapstructure:"percentiles"`
}

type SourceConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelay    int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSec) * time.Second
}

func (s SourceConfig) RetryDelayDuration() time.Duration {
	return time.Duration(s.RetryDelay) * time.Second
}

type BatchConfig struct {
	Workers int      `mapstructure:"workers"`
	Symbols []string `mapstructure:"symbols"`
	Expiry  string   `mapstructure:"expiry"`
}

type SampleConfig struct {
	Spot         float64 `mapstructure:"spot"`
	NumStrikes   int     `mapstructure:"num_strikes"`
	DaysToExpiry int     `mapstructure:"days_to_expiry"`
	Seed         uint64  `mapstructure:"seed"`
}

type OutputConfig struct {
	Directory       string `mapstructure:"directory"`
	IncludeMetadata bool   `mapstructure:"include_metadata"`
}

type LoggingConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
	Level     string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	p := gamma.DefaultParams()
	v.SetDefault("calculator.risk_free_rate", p.RiskFreeRate)
	v.SetDefault("calculator.contract_multiplier", p.ContractMultiplier)
	v.SetDefault("calculator.default_volatility", p.DefaultVolatility)
	v.SetDefault("calculator.min_volatility", p.MinVolatility)
	v.SetDefault("calculator.max_volatility", p.MaxVolatility)
	v.SetDefault("calculator.min_time_to_expiry", p.MinTimeToExpiry)
	v.SetDefault("calculator.max_time_to_expiry", p.MaxTimeToExpiry)
	v.SetDefault("walls.min_significance", 0.05)
	v.SetDefault("walls.max_walls", 5)
	v.SetDefault("walls.nearby_pct", 0.10)
	v.SetDefault("metrics.percentiles", []float64{10, 25, 50, 75, 90})
	v.SetDefault("source.base_url", "http://localhost:8080")
	v.SetDefault("source.timeout_sec", 60)
	v.SetDefault("source.retry_count", 3)
	v.SetDefault("source.retry_delay_sec", 2)
	v.SetDefault("source.rate_per_second", 2)
	v.SetDefault("batch.workers", 3)
	v.SetDefault("batch.symbols", DefaultSymbols)
	v.SetDefault("batch.expiry", ExpiryNearest)
	v.SetDefault("sample.spot", 4500.0)
	v.SetDefault("sample.num_strikes", 20)
	v.SetDefault("sample.days_to_expiry", 30)
	v.SetDefault("sample.seed", 1)
	v.SetDefault("output.directory", "exports")
	v.SetDefault("output.include_metadata", true)
	v.SetDefault("logging.enabled", false)
	v.SetDefault("logging.directory", "logs")
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("GEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("source.api_key", "GEX_API_KEY")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Analysis converts the loaded settings into a pipeline configuration.
func (c *Config) Analysis() analysis.Config {
	return analysis.Config{
		Gamma:           c.Calculator,
		MinSignificance: c.Walls.MinSignificance,
		MaxWalls:        c.Walls.MaxWalls,
		NearbyPct:       c.Walls.NearbyPct,
		Percentiles:     c.Metrics.Percentiles,
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if err := c.Calculator.Validate(); err != nil {
		errs.add("calculator", err.Error())
	}
	if c.Walls.MinSignificance < 0 || c.Walls.MinSignificance > 1 {
		errs.add("walls.min_significance", "must be in [0, 1]")
	}
	if c.Walls.MaxWalls < 1 {
		errs.add("walls.max_walls", "must be >= 1")
	}
	if c.Walls.NearbyPct <= 0 {
		errs.add("walls.nearby_pct", "must be positive")
	}
	for _, p := range c.Metrics.Percentiles {
		if p < 0 || p > 100 {
			errs.add("metrics.percentiles", fmt.Sprintf("%v outside [0, 100]", p))
		}
	}
	if c.Batch.Workers < 1 {
		errs.add("batch.workers", "must be >= 1")
	}
	if c.Source.RatePerSecond < 1 {
		errs.add("source.rate_per_second", "must be >= 1")
	}
	if c.Sample.NumStrikes < 2 {
		errs.add("sample.num_strikes", "must be >= 2")
	}
	if c.Sample.Spot <= 0 {
		errs.add("sample.spot", "must be positive")
	}

	validateBatch(errs, c.Batch)

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// RequireSource checks the settings needed to fetch chains remotely.
func (c *Config) RequireSource() error {
	if c.Source.BaseURL == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if c.Source.APIKey == "" {
		return fmt.Errorf("api_key is required (set GEX_API_KEY env var)")
	}
	return nil
}
