package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbench/backsim/market"
)

func TestSMA(t *testing.T) {
	fn := SMAFunc(3)
	out, err := fn([]float64{1, 2, 3, 4, 5})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2, out[2], 1e-12)
	assert.InDelta(t, 3, out[3], 1e-12)
	assert.InDelta(t, 4, out[4], 1e-12)
}

func TestSMAInvalidPeriod(t *testing.T) {
	_, err := SMAFunc(0)([]float64{1, 2})
	require.Error(t, err)
}

func TestEMA(t *testing.T) {
	fn := EMAFunc(3)
	out, err := fn([]float64{2, 2, 2, 5})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2, out[2], 1e-12) // seeded with SMA

	// multiplier = 2/(3+1) = 0.5; (5-2)*0.5 + 2 = 3.5
	assert.InDelta(t, 3.5, out[3], 1e-12)
}

func TestEMAShortSeries(t *testing.T) {
	out, err := EMAFunc(5)([]float64{1, 2, 3})
	require.NoError(t, err)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestMomentum(t *testing.T) {
	out, err := MomentumFunc(2)([]float64{10, 10, 12, 15})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 0.2, out[2], 1e-12)
	assert.InDelta(t, 0.5, out[3], 1e-12)
}

func TestPrecompute(t *testing.T) {
	days := []time.Time{
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}
	closes := []float64{10, 12, 14}

	var sets []market.BarSet
	for i, d := range days {
		b := market.Bar{Symbol: "AAA", Time: d, Open: closes[i], High: closes[i], Low: closes[i], Close: closes[i]}
		set, err := market.NewBarSet(d, b)
		require.NoError(t, err)
		sets = append(sets, set)
	}

	table, err := Precompute(sets, map[string]SeriesFunc{"sma2": SMAFunc(2)})
	require.NoError(t, err)

	assert.Equal(t, []string{"sma2"}, table.Names())

	// warmup bar has no value
	_, ok := table.Value("sma2", "AAA", days[0])
	assert.False(t, ok)

	v, ok := table.Value("sma2", "AAA", days[1])
	require.True(t, ok)
	assert.InDelta(t, 11, v, 1e-12)

	v, ok = table.Value("sma2", "AAA", days[2])
	require.True(t, ok)
	assert.InDelta(t, 13, v, 1e-12)

	// unknown name/symbol report ok=false
	_, ok = table.Value("ema", "AAA", days[2])
	assert.False(t, ok)
	_, ok = table.Value("sma2", "BBB", days[2])
	assert.False(t, ok)
}

func TestNilTableLookup(t *testing.T) {
	var table *Table
	_, ok := table.Value("sma", "AAA", time.Now())
	assert.False(t, ok)
}
