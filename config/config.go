// Package config loads run configuration from YAML.
package config

import (
	"fmt"
	"os"

	"github.com/StudioSol/set"
	"gopkg.in/yaml.v3"

	"github.com/quantforge/tradecore/backtest"
	"github.com/quantforge/tradecore/feed"
)

// Config holds everything a backtest run needs beyond the candle data.
type Config struct {
	StartEquity          float64  `yaml:"start_equity"`
	PositionSizePercent  float64  `yaml:"position_size_percent"`
	MaxOpenPositions     int      `yaml:"max_open_positions"`
	MinSignalStrength    float64  `yaml:"min_signal_strength"`
	WarmupBars           int      `yaml:"warmup_bars"`
	Timeframe            string   `yaml:"timeframe"`
	ConfirmationFactor   int      `yaml:"confirmation_factor"`
	EnabledStrategies    []string `yaml:"enabled_strategies,flow"`
	DatabasePath         string   `yaml:"database_path"`
	CachePath            string   `yaml:"cache_path"`
}

// Default returns the stock configuration used when no file is given.
func Default() *Config {
	return &Config{
		StartEquity:         backtest.DefaultStartEquity,
		PositionSizePercent: backtest.DefaultPositionSizePercent,
		MaxOpenPositions:    backtest.DefaultMaxOpenPositions,
		MinSignalStrength:   backtest.DefaultMinSignalStrength,
		WarmupBars:          backtest.DefaultWarmupBars,
		Timeframe:           "1h",
		ConfirmationFactor:  backtest.DefaultConfirmFactor,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects configurations the simulator would misbehave on.
func (c *Config) Validate() error {
	if c.StartEquity <= 0 {
		return fmt.Errorf("start_equity must be positive, got %v", c.StartEquity)
	}
	if c.PositionSizePercent <= 0 || c.PositionSizePercent > 100 {
		return fmt.Errorf("position_size_percent must be in (0, 100], got %v", c.PositionSizePercent)
	}
	if c.MaxOpenPositions <= 0 {
		return fmt.Errorf("max_open_positions must be positive, got %d", c.MaxOpenPositions)
	}
	if c.MinSignalStrength < 0 || c.MinSignalStrength > 100 {
		return fmt.Errorf("min_signal_strength must be in [0, 100], got %v", c.MinSignalStrength)
	}
	if c.WarmupBars <= 0 {
		return fmt.Errorf("warmup_bars must be positive, got %d", c.WarmupBars)
	}
	if c.ConfirmationFactor <= 1 {
		return fmt.Errorf("confirmation_factor must be greater than 1, got %d", c.ConfirmationFactor)
	}
	if _, err := feed.ParseInterval(c.Timeframe); err != nil {
		return err
	}
	return nil
}

// Save writes the configuration back out as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// BacktestConfig translates into the simulator's own options.
func (c *Config) BacktestConfig() backtest.Config {
	return backtest.Config{
		StartEquity:         c.StartEquity,
		PositionSizePercent: c.PositionSizePercent,
		MaxOpenPositions:    c.MaxOpenPositions,
		MinSignalStrength:   c.MinSignalStrength,
		WarmupBars:          c.WarmupBars,
		ConfirmFactor:       c.ConfirmationFactor,
		Timeframe:           c.Timeframe,
		Enabled:             c.enabledSet(),
	}
}

// enabledSet is nil when the list is empty, which the engine reads as
// "everything enabled".
func (c *Config) enabledSet() *set.LinkedHashSetString {
	if len(c.EnabledStrategies) == 0 {
		return nil
	}
	return set.NewLinkedHashSetString(c.EnabledStrategies...)
}
