// Package strategy holds the built-in strategies and the name lookup the
// CLI uses to pick one. Custom strategies only need to satisfy
// engine.Strategy; nothing here is special.
package strategy

import (
	"fmt"
	"strings"

	"github.com/quantbench/backsim/engine"
)

// ByName builds a built-in strategy from its CLI name. Symbols is the
// universe the strategy trades; fast/slow are the SMA-cross periods.
func ByName(name string, symbols []string, fast, slow int) (engine.Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return Noop{}, nil

	case "buy-hold", "buyhold":
		return NewBuyHold(symbols...), nil

	case "sma-cross", "smacross":
		return NewSMACross(symbols, fast, slow)

	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: noop, buy-hold, sma-cross)", name)
	}
}

// Noop does nothing. Useful for replaying data through the loop and for
// benchmark-only runs.
type Noop struct{}

func (Noop) Name() string { return "noop" }

func (Noop) OnBar(ctx *engine.Context) error {
	_ = ctx
	return nil
}
