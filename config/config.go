// Package config holds the immutable run configuration: everything that is
// fixed for the duration of a backtest. Validation errors here are fatal
// and abort before the bar loop begins.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantbench/backsim/market"
)

// Config is the complete run configuration. It is threaded explicitly
// through the resolver and execution engine rather than held as ambient
// global state, and never mutated after Validate passes.
type Config struct {
	// InitialCash is the starting cash balance.
	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`

	// Slippage is a fractional adverse price adjustment per fill:
	// buys fill at ref*(1+slippage), sells at ref*(1-slippage).
	Slippage float64 `json:"slippage" yaml:"slippage"`

	// Commission is a fractional fee on notional, charged on every fill.
	Commission float64 `json:"commission" yaml:"commission"`

	// PriceMode selects the execution reference price (close/open/vwap).
	PriceMode market.PriceMode `json:"price_mode" yaml:"price_mode"`

	// LotSize is the unit granularity buys are floored to. 1 means whole
	// units.
	LotSize float64 `json:"lot_size" yaml:"lot_size"`

	// SameDaySymbols lists symbols tradable T+0. Everything else is T+1:
	// lots bought on a bar cannot be sold until the next bar.
	SameDaySymbols []string `json:"same_day_symbols,omitempty" yaml:"same_day_symbols,omitempty"`

	// MaxPositionWeight caps a single symbol at this fraction of equity
	// after a buy. 0 disables the cap.
	MaxPositionWeight float64 `json:"max_position_weight,omitempty" yaml:"max_position_weight,omitempty"`

	// Benchmark is an optional symbol exposed to strategies as a
	// reference; it is never traded by the engine itself.
	Benchmark string `json:"benchmark,omitempty" yaml:"benchmark,omitempty"`
}

// Load reads a configuration file, YAML first with a JSON fallback, and
// validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration, format chosen by extension.
func (c *Config) Save(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration for fatal errors.
func (c *Config) Validate() error {
	if c.InitialCash <= 0 {
		return fmt.Errorf("initial_cash must be positive, got %.2f", c.InitialCash)
	}
	if c.Slippage < 0 || c.Slippage >= 1 {
		return fmt.Errorf("slippage must be in [0,1), got %.4f", c.Slippage)
	}
	if c.Commission < 0 || c.Commission >= 1 {
		return fmt.Errorf("commission must be in [0,1), got %.4f", c.Commission)
	}
	if !c.PriceMode.Valid() {
		return fmt.Errorf("price_mode must be close, open or vwap, got %q", c.PriceMode)
	}
	if c.LotSize <= 0 {
		return fmt.Errorf("lot_size must be positive, got %.4f", c.LotSize)
	}
	if c.MaxPositionWeight < 0 || c.MaxPositionWeight > 1 {
		return fmt.Errorf("max_position_weight must be in [0,1], got %.4f", c.MaxPositionWeight)
	}
	seen := make(map[string]struct{}, len(c.SameDaySymbols))
	for _, sym := range c.SameDaySymbols {
		if sym == "" {
			return fmt.Errorf("same_day_symbols contains an empty symbol")
		}
		if _, dup := seen[sym]; dup {
			return fmt.Errorf("same_day_symbols contains %q twice", sym)
		}
		seen[sym] = struct{}{}
	}
	return nil
}

// Default returns a configuration with sensible defaults: no friction, close
// execution, whole-unit lots, everything T+1.
func Default() *Config {
	return &Config{
		InitialCash: 1_000_000,
		Slippage:    0,
		Commission:  0,
		PriceMode:   market.PriceClose,
		LotSize:     1,
	}
}
