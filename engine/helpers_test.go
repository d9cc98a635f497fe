package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/quantbench/backsim/config"
	"github.com/quantbench/backsim/market"
	"github.com/quantbench/backsim/portfolio"
)

var (
	bar1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bar2 = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bar3 = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.InitialCash = 1_000_000
	return cfg
}

func testBar(sym string, at time.Time, close float64) market.Bar {
	return market.Bar{Symbol: sym, Time: at, Open: close, High: close, Low: close, Close: close, Volume: 1000}
}

func testSet(t *testing.T, at time.Time, bars ...market.Bar) market.BarSet {
	t.Helper()
	set, err := market.NewBarSet(at, bars...)
	require.NoError(t, err)
	return set
}

func testState(t *testing.T, cash float64) *portfolio.State {
	t.Helper()
	pf, err := portfolio.NewState(cash)
	require.NoError(t, err)
	return pf
}

// holdPosition seeds pf with a position bought at the given bar timestamp.
func holdPosition(t *testing.T, pf *portfolio.State, sym string, qty, price float64, at time.Time) {
	t.Helper()
	pf.MarkPrice(sym, price)
	_, err := pf.Apply(portfolio.Fill{
		ID: "seed", Symbol: sym, Side: portfolio.Buy,
		Quantity: qty, Price: price, Time: at,
	})
	require.NoError(t, err)
}

// scriptStrategy runs a per-bar function and records lifecycle calls.
type scriptStrategy struct {
	name    string
	onBar   func(ctx *Context) error
	trades  []Execution
	started bool
	stopped bool
}

func (s *scriptStrategy) Name() string {
	if s.name == "" {
		return "script"
	}
	return s.name
}

func (s *scriptStrategy) OnBar(ctx *Context) error {
	if s.onBar == nil {
		return nil
	}
	return s.onBar(ctx)
}

func (s *scriptStrategy) OnStart(store *Store) error {
	s.started = true
	return nil
}

func (s *scriptStrategy) OnTrade(ex Execution) {
	s.trades = append(s.trades, ex)
}

func (s *scriptStrategy) OnStop(store *Store) error {
	s.stopped = true
	return nil
}
