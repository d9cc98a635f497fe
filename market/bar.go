// Package market defines the bar-level market data model consumed by the
// backtest engine: per-symbol OHLCV bars and the per-timestamp BarSet the
// replay loop advances through.
package market

import (
	"fmt"
	"sort"
	"time"
)

// PriceMode selects which bar field is used as the execution reference price.
type PriceMode string

const (
	PriceClose PriceMode = "close"
	PriceOpen  PriceMode = "open"
	PriceVWAP  PriceMode = "vwap"
)

// Valid reports whether m is a recognized price mode.
func (m PriceMode) Valid() bool {
	switch m {
	case PriceClose, PriceOpen, PriceVWAP:
		return true
	}
	return false
}

// Bar is one symbol's OHLCV snapshot at a single timestamp. Bars are
// immutable once produced by a feed.
type Bar struct {
	Symbol string
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Price returns the execution reference price for the given mode.
// VWAP is approximated as typical price (H+L+C)/3 since there is no
// intra-bar data at this granularity.
func (b Bar) Price(mode PriceMode) float64 {
	switch mode {
	case PriceOpen:
		return b.Open
	case PriceVWAP:
		return (b.High + b.Low + b.Close) / 3
	default:
		return b.Close
	}
}

// Validate checks the bar for structurally impossible values.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar: empty symbol")
	}
	if b.Time.IsZero() {
		return fmt.Errorf("bar %s: zero timestamp", b.Symbol)
	}
	if b.Close <= 0 || b.Open <= 0 || b.High <= 0 || b.Low <= 0 {
		return fmt.Errorf("bar %s@%s: non-positive price", b.Symbol, b.Time.Format(time.RFC3339))
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s@%s: high %.6f below low %.6f", b.Symbol, b.Time.Format(time.RFC3339), b.High, b.Low)
	}
	return nil
}

// BarSet holds the bars for every symbol that traded at one timestamp.
// Symbols without a bar (halted, no data) are simply absent; the engine
// treats them as untradable for the bar.
type BarSet struct {
	Time time.Time
	bars map[string]Bar
}

// NewBarSet builds a set from bars that must all share the same timestamp.
func NewBarSet(t time.Time, bars ...Bar) (BarSet, error) {
	set := BarSet{Time: t, bars: make(map[string]Bar, len(bars))}
	for _, b := range bars {
		if err := b.Validate(); err != nil {
			return BarSet{}, err
		}
		if !b.Time.Equal(t) {
			return BarSet{}, fmt.Errorf("bar %s: timestamp %s does not match set %s",
				b.Symbol, b.Time.Format(time.RFC3339), t.Format(time.RFC3339))
		}
		if _, dup := set.bars[b.Symbol]; dup {
			return BarSet{}, fmt.Errorf("bar %s@%s: duplicate symbol in set", b.Symbol, t.Format(time.RFC3339))
		}
		set.bars[b.Symbol] = b
	}
	return set, nil
}

// Bar returns the bar for symbol, if one exists this timestamp.
func (s BarSet) Bar(symbol string) (Bar, bool) {
	b, ok := s.bars[symbol]
	return b, ok
}

// Has reports whether symbol has a bar this timestamp.
func (s BarSet) Has(symbol string) bool {
	_, ok := s.bars[symbol]
	return ok
}

// Len returns the number of symbols in the set.
func (s BarSet) Len() int { return len(s.bars) }

// Symbols returns the set's symbols in lexicographic order.
func (s BarSet) Symbols() []string {
	out := make([]string, 0, len(s.bars))
	for sym := range s.bars {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
