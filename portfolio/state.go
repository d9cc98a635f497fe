// Package portfolio is the authoritative ledger of a backtest run: cash,
// per-symbol positions with their lots, and equity. It is mutated only by
// applying fills; strategy code only ever sees read-only views.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// quantity/cash comparisons tolerate float drift up to this much.
const eps = 1e-9

var (
	ErrInsufficientCash     = errors.New("insufficient cash")
	ErrInsufficientPosition = errors.New("insufficient position")
)

// State holds the ledger. It is not safe for concurrent use; the run loop
// applies fills strictly sequentially within a bar.
type State struct {
	cash      float64
	positions map[string]*Position
	last      map[string]float64 // last seen price per symbol
}

// NewState creates a ledger with the given starting cash and no positions.
func NewState(initialCash float64) (*State, error) {
	if initialCash <= 0 {
		return nil, fmt.Errorf("portfolio: initial cash must be positive, got %.2f", initialCash)
	}
	return &State{
		cash:      initialCash,
		positions: make(map[string]*Position),
		last:      make(map[string]float64),
	}, nil
}

// Cash returns the current cash balance.
func (s *State) Cash() float64 { return s.cash }

// Quantity returns the held quantity for symbol (0 if none).
func (s *State) Quantity(symbol string) float64 {
	if p, ok := s.positions[symbol]; ok {
		return p.Quantity
	}
	return 0
}

// AvgCost returns the volume-weighted average cost for symbol. The second
// return is false for a zero-quantity position, where average cost is
// undefined and must not be read.
func (s *State) AvgCost(symbol string) (float64, bool) {
	p, ok := s.positions[symbol]
	if !ok || p.Quantity <= eps {
		return 0, false
	}
	return p.AvgCost, true
}

// Position returns a deep copy of the position for symbol.
func (s *State) Position(symbol string) (Position, bool) {
	p, ok := s.positions[symbol]
	if !ok {
		return Position{}, false
	}
	return p.clone(), true
}

// Symbols returns held symbols in lexicographic order.
func (s *State) Symbols() []string {
	out := make([]string, 0, len(s.positions))
	for sym := range s.positions {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

// MarkPrice records the latest observed price for symbol. Equity is always
// computed against these marks, so the run loop marks every symbol that has
// a bar before anything else happens on the bar.
func (s *State) MarkPrice(symbol string, price float64) {
	if price > 0 {
		s.last[symbol] = price
	}
}

// LastPrice returns the most recent mark for symbol.
func (s *State) LastPrice(symbol string) (float64, bool) {
	px, ok := s.last[symbol]
	return px, ok
}

// Equity returns cash plus the market value of all positions at their last
// marked prices. A position whose symbol has never been marked values at
// its own average cost, which only happens before its first bar.
func (s *State) Equity() float64 {
	equity := s.cash
	for sym, p := range s.positions {
		px, ok := s.last[sym]
		if !ok {
			px = p.AvgCost
		}
		equity += p.Quantity * px
	}
	return equity
}

// Weight returns the fraction of equity held in symbol at its last mark.
func (s *State) Weight(symbol string) float64 {
	p, ok := s.positions[symbol]
	if !ok {
		return 0
	}
	eq := s.Equity()
	if eq <= 0 {
		return 0
	}
	px, ok := s.last[symbol]
	if !ok {
		px = p.AvgCost
	}
	return p.Quantity * px / eq
}

// Sellable returns the quantity of symbol that may be sold on the bar at
// now: the full position for T+0 symbols, or only lots acquired before now
// for T+1 symbols.
func (s *State) Sellable(symbol string, now time.Time, cfg SettlementConfig) float64 {
	p, ok := s.positions[symbol]
	if !ok {
		return 0
	}
	if cfg.SameDay(symbol) {
		return p.Quantity
	}
	return p.settledQuantity(now)
}

// Apply mutates the ledger with a fill and returns realized P&L (net of
// fee) for sells. Buys extend the position and recompute the average cost
// volume-weighted; sells consume lots oldest-first and leave average cost
// unchanged. Cash and quantity never go negative: infeasible fills are
// rejected whole, with no partial application.
func (s *State) Apply(f Fill) (realized float64, err error) {
	if f.Quantity <= 0 {
		return 0, fmt.Errorf("apply %s %s: non-positive quantity %.6f", f.Side, f.Symbol, f.Quantity)
	}
	switch f.Side {
	case Buy:
		return 0, s.applyBuy(f)
	case Sell:
		return s.applySell(f)
	default:
		return 0, fmt.Errorf("apply %s: unknown side %d", f.Symbol, f.Side)
	}
}

func (s *State) applyBuy(f Fill) error {
	cost := f.Notional() + f.Fee
	if cost > s.cash+eps {
		return fmt.Errorf("apply buy %s: need %.2f, have %.2f: %w", f.Symbol, cost, s.cash, ErrInsufficientCash)
	}

	p, ok := s.positions[f.Symbol]
	if !ok {
		p = &Position{Symbol: f.Symbol}
		s.positions[f.Symbol] = p
	}

	newQty := p.Quantity + f.Quantity
	p.AvgCost = (p.Quantity*p.AvgCost + f.Quantity*f.Price) / newQty
	p.Quantity = newQty
	p.Lots = append(p.Lots, Lot{Quantity: f.Quantity, Price: f.Price, Acquired: f.Time})

	s.cash -= cost
	if s.cash < 0 {
		s.cash = 0 // float drift only; the feasibility check ran above
	}
	return nil
}

func (s *State) applySell(f Fill) (float64, error) {
	p, ok := s.positions[f.Symbol]
	if !ok || f.Quantity > p.Quantity+eps {
		held := 0.0
		if ok {
			held = p.Quantity
		}
		return 0, fmt.Errorf("apply sell %s: want %.6f, hold %.6f: %w", f.Symbol, f.Quantity, held, ErrInsufficientPosition)
	}

	realized := (f.Price-p.AvgCost)*f.Quantity - f.Fee
	s.cash += f.Notional() - f.Fee

	// Consume lots oldest-first. Same-day lots sit at the tail, so a sell
	// that passed the settlement check never touches them.
	remaining := f.Quantity
	i := 0
	for i < len(p.Lots) && remaining > eps {
		lot := &p.Lots[i]
		if lot.Quantity > remaining+eps {
			lot.Quantity -= remaining
			remaining = 0
			break
		}
		remaining -= lot.Quantity
		i++
	}
	p.Lots = p.Lots[i:]

	p.Quantity -= f.Quantity
	if p.Quantity <= eps {
		delete(s.positions, f.Symbol) // average cost undefined at zero
	}
	return realized, nil
}
