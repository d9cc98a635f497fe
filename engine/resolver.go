package engine

import (
	"math"
	"time"

	"github.com/quantbench/backsim/config"
	"github.com/quantbench/backsim/internal/id"
	"github.com/quantbench/backsim/market"
	"github.com/quantbench/backsim/portfolio"
)

const eps = 1e-9

// Resolver translates intents into concrete unit orders. It clamps rather
// than rejects wherever a feasible order exists: weights clamp to [0,1],
// cash/count amounts clamp to what cash or the position can support. What
// it cannot know about — settlement, batch interactions — is left to the
// execution engine's rejection path.
type Resolver struct {
	cfg *config.Config
}

func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve converts a bar's intent batch into orders. Every entry resolves
// against the same cash/equity snapshot taken here, at the start of bar
// processing, so resolution order cannot change outcomes within the batch.
// Invalid or infeasible intents come back as rejection executions; intents
// that resolve to nothing (zero amount, weight already on target) are
// silently dropped.
func (r *Resolver) Resolve(now time.Time, bars market.BarSet, pf *portfolio.State, intents []Intent) ([]Order, []Execution) {
	cash := pf.Cash()
	equity := pf.Equity()

	var (
		orders  []Order
		rejects []Execution
	)
	for _, intent := range intents {
		order, rej := r.resolveOne(now, bars, pf, cash, equity, intent)
		if rej != nil {
			rejects = append(rejects, *rej)
			continue
		}
		if order != nil {
			orders = append(orders, *order)
		}
	}
	return orders, rejects
}

func (r *Resolver) resolveOne(now time.Time, bars market.BarSet, pf *portfolio.State, cash, equity float64, intent Intent) (*Order, *Execution) {
	// weight targets carry no explicit side; derive one from the move the
	// target implies against the last marks so rejections report a direction
	side := intent.Side
	if intent.Kind == Weight {
		side = portfolio.Buy
		if pf.Weight(intent.Symbol) > intent.Amount {
			side = portfolio.Sell
		}
	}

	reject := func(reason RejectReason) (*Order, *Execution) {
		ex := newRejection(intent.Symbol, side, now, reason)
		return nil, &ex
	}

	if intent.Symbol == "" || !intent.Kind.valid() {
		return reject(RejectInvalidIntent)
	}
	if math.IsNaN(intent.Amount) || math.IsInf(intent.Amount, 0) {
		return reject(RejectInvalidIntent)
	}
	if intent.Kind != Weight {
		if intent.Side != portfolio.Buy && intent.Side != portfolio.Sell {
			return reject(RejectInvalidIntent)
		}
		if intent.Amount < 0 {
			return reject(RejectInvalidIntent)
		}
		if intent.Amount == 0 {
			return nil, nil
		}
	}

	bar, ok := bars.Bar(intent.Symbol)
	if !ok {
		return reject(RejectDataGap)
	}

	ref := bar.Price(r.cfg.PriceMode)
	buyPx := ref * (1 + r.cfg.Slippage)
	sellPx := ref * (1 - r.cfg.Slippage)

	switch intent.Kind {
	case Count:
		if intent.Side == portfolio.Buy {
			return r.resolveBuy(now, intent.Symbol, intent.Amount, buyPx, cash)
		}
		return r.resolveSell(now, intent.Symbol, intent.Amount, pf.Quantity(intent.Symbol))

	case Cash:
		if intent.Side == portfolio.Buy {
			return r.resolveBuy(now, intent.Symbol, intent.Amount/buyPx, buyPx, cash)
		}
		return r.resolveSell(now, intent.Symbol, intent.Amount/sellPx, pf.Quantity(intent.Symbol))

	default: // Weight
		w := intent.Amount
		if w < 0 {
			w = 0
		} else if w > 1 {
			w = 1
		}
		target := w * equity
		current := pf.Quantity(intent.Symbol) * ref
		delta := target - current

		if delta > 0 {
			return r.resolveBuy(now, intent.Symbol, delta/ref, buyPx, cash)
		}
		return r.resolveSellQuiet(now, intent.Symbol, -delta/ref, pf.Quantity(intent.Symbol))
	}
}

// resolveBuy lot-aligns the quantity and clamps it to what cash can fund
// including slippage and commission. A buy that wants at least one lot but
// can afford none rejects with INSUFFICIENT_CASH; one that asks for less
// than a lot is a silent no-op.
func (r *Resolver) resolveBuy(now time.Time, symbol string, qty, buyPx, cash float64) (*Order, *Execution) {
	want := r.floorLot(qty)
	if want <= 0 {
		return nil, nil
	}

	max := r.floorLot(cash / (buyPx * (1 + r.cfg.Commission)))
	if max <= 0 {
		ex := newRejection(symbol, portfolio.Buy, now, RejectInsufficientCash)
		return nil, &ex
	}
	if want > max {
		want = max
	}
	return &Order{Symbol: symbol, Side: portfolio.Buy, Quantity: want, Time: now}, nil
}

// resolveSell clamps to the held quantity. Selling with nothing held is a
// rejection; settlement is the engine's concern, not the resolver's.
func (r *Resolver) resolveSell(now time.Time, symbol string, qty, held float64) (*Order, *Execution) {
	if held <= eps {
		ex := newRejection(symbol, portfolio.Sell, now, RejectInsufficientPosition)
		return nil, &ex
	}
	if qty > held {
		qty = held
	}
	if qty <= eps {
		return nil, nil
	}
	return &Order{Symbol: symbol, Side: portfolio.Sell, Quantity: qty, Time: now}, nil
}

// resolveSellQuiet is the weight-target variant: a target at or above the
// current holding is already satisfied, so an empty position is a no-op
// rather than a rejection.
func (r *Resolver) resolveSellQuiet(now time.Time, symbol string, qty, held float64) (*Order, *Execution) {
	if qty <= eps || held <= eps {
		return nil, nil
	}
	if qty > held {
		qty = held
	}
	return &Order{Symbol: symbol, Side: portfolio.Sell, Quantity: qty, Time: now}, nil
}

func (r *Resolver) floorLot(qty float64) float64 {
	lot := r.cfg.LotSize
	return math.Floor(qty/lot+eps) * lot
}

func newRejection(symbol string, side portfolio.Side, now time.Time, reason RejectReason) Execution {
	return Execution{
		Fill: portfolio.Fill{
			ID:     id.New(),
			Symbol: symbol,
			Side:   side,
			Time:   now,
		},
		Rejected: true,
		Reason:   reason,
	}
}
