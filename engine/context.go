package engine

import (
	"time"

	"github.com/quantbench/backsim/indicators"
	"github.com/quantbench/backsim/market"
	"github.com/quantbench/backsim/portfolio"
)

// Context is the per-bar view handed to strategy code: the bar's market
// snapshots, read-only portfolio accessors, the indicator table, the
// per-run store, and the order-submission handle. It is rebuilt every bar
// and discarded, so nothing stale can leak across bars. Cash and equity
// are snapshotted at bar start and do not move as intents are submitted.
type Context struct {
	now       time.Time
	bars      market.BarSet
	pf        *portfolio.State
	table     *indicators.Table
	store     *Store
	benchmark string

	cash   float64
	equity float64

	intents []Intent
}

func newContext(now time.Time, bars market.BarSet, pf *portfolio.State, table *indicators.Table, store *Store, benchmark string) *Context {
	return &Context{
		now:       now,
		bars:      bars,
		pf:        pf,
		table:     table,
		store:     store,
		benchmark: benchmark,
		cash:      pf.Cash(),
		equity:    pf.Equity(),
	}
}

// Time returns the current bar timestamp.
func (c *Context) Time() time.Time { return c.now }

// Bar returns the current bar for symbol, if it has one.
func (c *Context) Bar(symbol string) (market.Bar, bool) {
	return c.bars.Bar(symbol)
}

// Symbols returns the symbols with a bar this timestamp, in lexicographic
// order.
func (c *Context) Symbols() []string { return c.bars.Symbols() }

// Tradable reports whether symbol has a valid price this bar. Halted or
// missing symbols are untradable; orders against them reject with
// DATA_GAP.
func (c *Context) Tradable(symbol string) bool { return c.bars.Has(symbol) }

// Benchmark returns the configured benchmark symbol's bar, if any.
func (c *Context) Benchmark() (market.Bar, bool) {
	if c.benchmark == "" {
		return market.Bar{}, false
	}
	return c.bars.Bar(c.benchmark)
}

// Cash returns the bar-start cash snapshot.
func (c *Context) Cash() float64 { return c.cash }

// Equity returns the bar-start equity snapshot.
func (c *Context) Equity() float64 { return c.equity }

// Quantity returns the held quantity for symbol.
func (c *Context) Quantity(symbol string) float64 { return c.pf.Quantity(symbol) }

// AvgCost returns the average cost for symbol; ok is false when nothing
// is held.
func (c *Context) AvgCost(symbol string) (float64, bool) { return c.pf.AvgCost(symbol) }

// Weight returns symbol's fraction of current equity.
func (c *Context) Weight(symbol string) float64 { return c.pf.Weight(symbol) }

// Position returns a copy of the full position for symbol.
func (c *Context) Position(symbol string) (portfolio.Position, bool) { return c.pf.Position(symbol) }

// Indicator returns a precomputed indicator value for symbol on this bar.
// ok is false during warmup or for unknown names.
func (c *Context) Indicator(name, symbol string) (float64, bool) {
	return c.table.Value(name, symbol, c.now)
}

// Store returns the per-run strategy state that survives across bars.
func (c *Context) Store() *Store { return c.store }

// Buy submits a buy intent denominated by kind.
func (c *Context) Buy(symbol string, amount float64, kind QuantityKind) {
	c.Submit(Intent{Symbol: symbol, Side: portfolio.Buy, Kind: kind, Amount: amount})
}

// Sell submits a sell intent denominated by kind.
func (c *Context) Sell(symbol string, amount float64, kind QuantityKind) {
	c.Submit(Intent{Symbol: symbol, Side: portfolio.Sell, Kind: kind, Amount: amount})
}

// TargetWeight submits a target-weight intent: trade whatever delta moves
// symbol to the given fraction of equity. Weight 0 liquidates.
func (c *Context) TargetWeight(symbol string, weight float64) {
	c.Submit(Intent{Symbol: symbol, Kind: Weight, Amount: weight})
}

// TargetWeights submits a batch of target weights in entry order. The whole
// batch resolves against the same bar-start equity snapshot, so entries do
// not compound against each other.
func (c *Context) TargetWeights(entries []BatchEntry) {
	for _, e := range entries {
		c.TargetWeight(e.Symbol, e.Amount)
	}
}

// SubmitBatch submits one intent per entry with a shared side and kind,
// preserving entry order.
func (c *Context) SubmitBatch(side portfolio.Side, kind QuantityKind, entries []BatchEntry) {
	for _, e := range entries {
		c.Submit(Intent{Symbol: e.Symbol, Side: side, Kind: kind, Amount: e.Amount})
	}
}

// Submit queues a raw intent for resolution after OnBar returns.
func (c *Context) Submit(intent Intent) {
	c.intents = append(c.intents, intent)
}

// take hands the queued intents to the run loop and clears the handle.
func (c *Context) take() []Intent {
	out := c.intents
	c.intents = nil
	return out
}
