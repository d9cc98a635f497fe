package strategy

import (
	"github.com/quantbench/backsim/engine"
)

// BuyHold targets an equal weight in every configured symbol on the first
// bar each symbol trades, then holds. With no symbols configured it trades
// everything the feed shows it.
type BuyHold struct {
	symbols []string
}

func NewBuyHold(symbols ...string) *BuyHold {
	return &BuyHold{symbols: symbols}
}

func (s *BuyHold) Name() string { return "buy-hold" }

func (s *BuyHold) OnBar(ctx *engine.Context) error {
	universe := s.symbols
	if len(universe) == 0 {
		universe = ctx.Symbols()
	}
	w := 1.0 / float64(len(universe))

	for _, sym := range universe {
		if ctx.Quantity(sym) > 0 || !ctx.Tradable(sym) {
			continue
		}
		ctx.TargetWeight(sym, w)
	}
	return nil
}
