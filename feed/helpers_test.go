package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantbench/backsim/market"
)

func bar(sym string, t time.Time, close float64) market.Bar {
	return market.Bar{Symbol: sym, Time: t, Open: close, High: close, Low: close, Close: close, Volume: 100}
}

func mustSet(t *testing.T, at time.Time, bars ...market.Bar) market.BarSet {
	t.Helper()
	set, err := market.NewBarSet(at, bars...)
	require.NoError(t, err)
	return set
}
