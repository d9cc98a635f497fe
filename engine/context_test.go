package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantbench/backsim/indicators"
	"github.com/quantbench/backsim/portfolio"
)

func TestContextSnapshotsAtBarStart(t *testing.T) {
	pf := testState(t, 1_000_000)
	set := testSet(t, bar1, testBar("AAA", bar1, 10))
	ctx := newContext(bar1, set, pf, nil, NewStore(), "")

	assert.InDelta(t, 1_000_000, ctx.Cash(), 1e-9)
	assert.InDelta(t, 1_000_000, ctx.Equity(), 1e-9)

	// submitting intents does not move the snapshots
	ctx.Buy("AAA", 1000, Count)
	assert.InDelta(t, 1_000_000, ctx.Cash(), 1e-9)
	assert.InDelta(t, 1_000_000, ctx.Equity(), 1e-9)
}

func TestContextTradable(t *testing.T) {
	pf := testState(t, 1_000_000)
	set := testSet(t, bar1, testBar("AAA", bar1, 10), testBar("BBB", bar1, 20))
	ctx := newContext(bar1, set, pf, nil, NewStore(), "BBB")

	assert.True(t, ctx.Tradable("AAA"))
	assert.False(t, ctx.Tradable("HALTED"))
	assert.Equal(t, []string{"AAA", "BBB"}, ctx.Symbols())

	bench, ok := ctx.Benchmark()
	require.True(t, ok)
	assert.Equal(t, "BBB", bench.Symbol)
}

func TestContextIndicatorLookup(t *testing.T) {
	table := indicators.NewTable()
	table.Set("sma20", "AAA", bar1, 9.5)

	pf := testState(t, 1_000_000)
	set := testSet(t, bar1, testBar("AAA", bar1, 10))
	ctx := newContext(bar1, set, pf, table, NewStore(), "")

	v, ok := ctx.Indicator("sma20", "AAA")
	require.True(t, ok)
	assert.InDelta(t, 9.5, v, 1e-9)

	_, ok = ctx.Indicator("sma20", "BBB")
	assert.False(t, ok)
	_, ok = ctx.Indicator("rsi", "AAA")
	assert.False(t, ok)
}

func TestContextSubmitOrder(t *testing.T) {
	pf := testState(t, 1_000_000)
	set := testSet(t, bar1, testBar("AAA", bar1, 10), testBar("BBB", bar1, 20))
	ctx := newContext(bar1, set, pf, nil, NewStore(), "")

	ctx.Buy("AAA", 5000, Cash)
	ctx.Sell("BBB", 10, Count)
	ctx.TargetWeights([]BatchEntry{{"AAA", 0.2}, {"BBB", 0.1}})

	intents := ctx.take()
	require.Len(t, intents, 4)
	assert.Equal(t, Cash, intents[0].Kind)
	assert.Equal(t, portfolio.Sell, intents[1].Side)
	assert.Equal(t, Weight, intents[2].Kind)
	assert.Equal(t, "BBB", intents[3].Symbol)

	assert.Empty(t, ctx.take(), "take drains the queue")
}
