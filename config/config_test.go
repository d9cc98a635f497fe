package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbench/backsim/market"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"default", func(c *Config) {}, true},
		{"zero cash", func(c *Config) { c.InitialCash = 0 }, false},
		{"negative cash", func(c *Config) { c.InitialCash = -1 }, false},
		{"negative slippage", func(c *Config) { c.Slippage = -0.001 }, false},
		{"slippage at 1", func(c *Config) { c.Slippage = 1 }, false},
		{"negative commission", func(c *Config) { c.Commission = -0.001 }, false},
		{"bad price mode", func(c *Config) { c.PriceMode = "midpoint" }, false},
		{"vwap mode", func(c *Config) { c.PriceMode = market.PriceVWAP }, true},
		{"zero lot size", func(c *Config) { c.LotSize = 0 }, false},
		{"cap above 1", func(c *Config) { c.MaxPositionWeight = 1.2 }, false},
		{"cap at 1", func(c *Config) { c.MaxPositionWeight = 1 }, true},
		{"empty t0 symbol", func(c *Config) { c.SameDaySymbols = []string{""} }, false},
		{"duplicate t0 symbol", func(c *Config) { c.SameDaySymbols = []string{"AAA", "AAA"} }, false},
		{"t0 symbols", func(c *Config) { c.SameDaySymbols = []string{"AAA", "BBB"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	body := `
initial_cash: 250000
slippage: 0.001
commission: 0.0005
price_mode: open
lot_size: 100
same_day_symbols: [ETF1, ETF2]
max_position_weight: 0.4
benchmark: BENCH
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 250_000.0, cfg.InitialCash)
	assert.Equal(t, 0.001, cfg.Slippage)
	assert.Equal(t, market.PriceOpen, cfg.PriceMode)
	assert.Equal(t, 100.0, cfg.LotSize)
	assert.Equal(t, []string{"ETF1", "ETF2"}, cfg.SameDaySymbols)
	assert.Equal(t, 0.4, cfg.MaxPositionWeight)
	assert.Equal(t, "BENCH", cfg.Benchmark)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("initial_cash: -5\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.InitialCash = 42_000
	cfg.SameDaySymbols = []string{"ETF1"}

	for _, name := range []string{"run.yaml", "run.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.Save(path))

		got, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, cfg, got)
	}
}
