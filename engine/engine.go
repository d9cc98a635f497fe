// Package engine is the bar-synchronous core: it assembles per-bar
// contexts, resolves strategy intents into unit orders, executes them
// sell-before-buy against the portfolio ledger, and drives the run loop.
package engine

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/quantbench/backsim/config"
	"github.com/quantbench/backsim/internal/id"
	"github.com/quantbench/backsim/market"
	"github.com/quantbench/backsim/portfolio"
)

// Engine executes resolved order batches for one bar at a time. All sells
// run before any buy so cash freed by sells can fund same-bar buys, and
// each side processes in lexicographic symbol order so identical inputs
// always produce identical fills.
type Engine struct {
	cfg    *config.Config
	settle portfolio.SettlementConfig
	log    *zap.Logger
}

// New builds an execution engine from the run configuration.
func New(cfg *config.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		cfg:    cfg,
		settle: portfolio.NewSettlementConfig(cfg.SameDaySymbols...),
		log:    log,
	}
}

// ExecuteBatch executes a bar's orders and applies each fill to the ledger
// immediately, so later orders in the batch see updated cash and
// positions. Constraint violations reject the whole order; there are no
// partial fills.
func (e *Engine) ExecuteBatch(now time.Time, bars market.BarSet, pf *portfolio.State, orders []Order) []Execution {
	var sells, buys []Order
	for _, o := range orders {
		if o.Side == portfolio.Sell {
			sells = append(sells, o)
		} else {
			buys = append(buys, o)
		}
	}
	sort.SliceStable(sells, func(i, j int) bool { return sells[i].Symbol < sells[j].Symbol })
	sort.SliceStable(buys, func(i, j int) bool { return buys[i].Symbol < buys[j].Symbol })

	execs := make([]Execution, 0, len(orders))

	for _, o := range sells {
		execs = append(execs, e.executeSell(now, bars, pf, o))
	}
	for _, o := range buys {
		execs = append(execs, e.executeBuy(now, bars, pf, o))
	}
	return execs
}

func (e *Engine) executeSell(now time.Time, bars market.BarSet, pf *portfolio.State, o Order) Execution {
	bar, ok := bars.Bar(o.Symbol)
	if !ok {
		return newRejection(o.Symbol, portfolio.Sell, now, RejectDataGap)
	}

	px := bar.Price(e.cfg.PriceMode) * (1 - e.cfg.Slippage)
	fee := o.Quantity * px * e.cfg.Commission

	// earlier sells in the batch have already been applied to the ledger,
	// so the quantity and sellable reads here account for them
	if o.Quantity > pf.Quantity(o.Symbol)+eps {
		return newRejection(o.Symbol, portfolio.Sell, now, RejectInsufficientPosition)
	}

	if o.Quantity > pf.Sellable(o.Symbol, now, e.settle)+eps {
		// held but not settled: same-day lots of a T+1 symbol
		return newRejection(o.Symbol, portfolio.Sell, now, RejectSettlement)
	}

	fill := portfolio.Fill{
		ID:       id.New(),
		Symbol:   o.Symbol,
		Side:     portfolio.Sell,
		Quantity: o.Quantity,
		Price:    px,
		Fee:      fee,
		Time:     now,
	}
	realized, err := pf.Apply(fill)
	if err != nil {
		// the checks above should make this unreachable
		e.log.Warn("sell apply failed", zap.String("symbol", o.Symbol), zap.Error(err))
		return newRejection(o.Symbol, portfolio.Sell, now, RejectInsufficientPosition)
	}
	fill.Realized = realized

	e.log.Debug("fill",
		zap.String("symbol", fill.Symbol),
		zap.String("side", fill.Side.String()),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("price", fill.Price),
	)
	return Execution{Fill: fill}
}

func (e *Engine) executeBuy(now time.Time, bars market.BarSet, pf *portfolio.State, o Order) Execution {
	bar, ok := bars.Bar(o.Symbol)
	if !ok {
		return newRejection(o.Symbol, portfolio.Buy, now, RejectDataGap)
	}

	ref := bar.Price(e.cfg.PriceMode)
	px := ref * (1 + e.cfg.Slippage)
	fee := o.Quantity * px * e.cfg.Commission

	if o.Quantity*px+fee > pf.Cash()+eps {
		return newRejection(o.Symbol, portfolio.Buy, now, RejectInsufficientCash)
	}

	if maxW := e.cfg.MaxPositionWeight; maxW > 0 {
		after := (pf.Quantity(o.Symbol) + o.Quantity) * ref
		if after > maxW*pf.Equity()+eps {
			return newRejection(o.Symbol, portfolio.Buy, now, RejectPositionLimit)
		}
	}

	fill := portfolio.Fill{
		ID:       id.New(),
		Symbol:   o.Symbol,
		Side:     portfolio.Buy,
		Quantity: o.Quantity,
		Price:    px,
		Fee:      fee,
		Time:     now,
	}
	if _, err := pf.Apply(fill); err != nil {
		e.log.Warn("buy apply failed", zap.String("symbol", o.Symbol), zap.Error(err))
		return newRejection(o.Symbol, portfolio.Buy, now, RejectInsufficientCash)
	}

	e.log.Debug("fill",
		zap.String("symbol", fill.Symbol),
		zap.String("side", fill.Side.String()),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("price", fill.Price),
	)
	return Execution{Fill: fill}
}
