package strategy

import (
	"fmt"

	"github.com/quantbench/backsim/engine"
)

// SMACross trades a fast/slow moving-average crossover per symbol:
// enters on a bull cross (fast rises above slow), liquidates on a bear
// cross. It reads precomputed series from the run's indicator table and
// keeps its cross state in the per-run store, so the struct itself stays
// stateless and reusable across runs.
type SMACross struct {
	symbols []string
	fast    int
	slow    int
	fastKey string
	slowKey string
}

func NewSMACross(symbols []string, fast, slow int) (*SMACross, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("sma-cross: at least one symbol required")
	}
	if fast <= 0 || slow <= 0 || fast >= slow {
		return nil, fmt.Errorf("sma-cross: need 0 < fast < slow, got %d/%d", fast, slow)
	}
	return &SMACross{
		symbols: symbols,
		fast:    fast,
		slow:    slow,
		fastKey: fmt.Sprintf("sma%d", fast),
		slowKey: fmt.Sprintf("sma%d", slow),
	}, nil
}

// Indicators returns the table names this strategy reads, mapped to their
// periods, so the caller can precompute them.
func (s *SMACross) Indicators() map[string]int {
	return map[string]int{s.fastKey: s.fast, s.slowKey: s.slow}
}

func (s *SMACross) Name() string { return "sma-cross" }

func (s *SMACross) OnBar(ctx *engine.Context) error {
	w := 1.0 / float64(len(s.symbols))

	for _, sym := range s.symbols {
		fast, ok := ctx.Indicator(s.fastKey, sym)
		if !ok {
			continue // warmup
		}
		slow, ok := ctx.Indicator(s.slowKey, sym)
		if !ok {
			continue
		}

		diff := fast - slow
		key := "diff:" + sym
		prev, have := ctx.Store().Get(key)
		ctx.Store().Set(key, diff)
		if !have {
			continue // need a previous diff to detect a cross
		}
		last := prev.(float64)

		switch {
		case diff > 0 && last <= 0:
			ctx.TargetWeight(sym, w)
		case diff < 0 && last >= 0:
			ctx.TargetWeight(sym, 0)
		}
	}
	return nil
}
