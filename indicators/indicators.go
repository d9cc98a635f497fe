// Package indicators precomputes factor tables for a backtest run. The
// engine never computes indicators on the bar path: tables are built from
// the full bar history before the run starts and are read-only afterwards.
package indicators

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/quantbench/backsim/market"
)

// Table maps indicator name -> symbol -> bar timestamp -> value.
// It is read-only once Precompute returns.
type Table struct {
	values map[string]map[string]map[int64]float64
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string]map[string]map[int64]float64)}
}

// Set records a value. Only Precompute should call this.
func (t *Table) Set(name, symbol string, at time.Time, v float64) {
	bySym, ok := t.values[name]
	if !ok {
		bySym = make(map[string]map[int64]float64)
		t.values[name] = bySym
	}
	byTime, ok := bySym[symbol]
	if !ok {
		byTime = make(map[int64]float64)
		bySym[symbol] = byTime
	}
	byTime[at.UnixNano()] = v
}

// Value returns the indicator value for symbol at the given bar timestamp.
// ok is false during warmup or for unknown names/symbols.
func (t *Table) Value(name, symbol string, at time.Time) (float64, bool) {
	if t == nil {
		return 0, false
	}
	bySym, ok := t.values[name]
	if !ok {
		return 0, false
	}
	byTime, ok := bySym[symbol]
	if !ok {
		return 0, false
	}
	v, ok := byTime[at.UnixNano()]
	return v, ok
}

// Names returns the registered indicator names in lexicographic order.
func (t *Table) Names() []string {
	out := make([]string, 0, len(t.values))
	for name := range t.values {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SeriesFunc computes an indicator series from a close-price series. The
// output must have the same length as the input; warmup slots are NaN.
type SeriesFunc func(closes []float64) ([]float64, error)

// SMAFunc returns a simple moving average series function.
func SMAFunc(period int) SeriesFunc {
	return func(closes []float64) ([]float64, error) {
		if period <= 0 {
			return nil, fmt.Errorf("sma: period must be positive, got %d", period)
		}
		out := nanSlice(len(closes))
		var sum float64
		for i, c := range closes {
			sum += c
			if i >= period {
				sum -= closes[i-period]
			}
			if i >= period-1 {
				out[i] = sum / float64(period)
			}
		}
		return out, nil
	}
}

// EMAFunc returns an exponential moving average series function, seeded
// with the SMA of the first period values.
func EMAFunc(period int) SeriesFunc {
	return func(closes []float64) ([]float64, error) {
		if period <= 0 {
			return nil, fmt.Errorf("ema: period must be positive, got %d", period)
		}
		out := nanSlice(len(closes))
		if len(closes) < period {
			return out, nil
		}

		sma := 0.0
		for i := 0; i < period; i++ {
			sma += closes[i]
		}
		ema := sma / float64(period)
		out[period-1] = ema

		multiplier := 2.0 / float64(period+1)
		for i := period; i < len(closes); i++ {
			ema = (closes[i]-ema)*multiplier + ema
			out[i] = ema
		}
		return out, nil
	}
}

// MomentumFunc returns close[i]/close[i-period] - 1.
func MomentumFunc(period int) SeriesFunc {
	return func(closes []float64) ([]float64, error) {
		if period <= 0 {
			return nil, fmt.Errorf("momentum: period must be positive, got %d", period)
		}
		out := nanSlice(len(closes))
		for i := period; i < len(closes); i++ {
			if closes[i-period] != 0 {
				out[i] = closes[i]/closes[i-period] - 1
			}
		}
		return out, nil
	}
}

// Precompute builds a table over the full bar history. Each symbol's close
// series is assembled in timestamp order (gaps simply shorten the series;
// no carry-forward), then every series function runs over it. NaN warmup
// slots are left out of the table so lookups report ok=false.
func Precompute(sets []market.BarSet, specs map[string]SeriesFunc) (*Table, error) {
	type point struct {
		t time.Time
		c float64
	}
	series := make(map[string][]point)
	for _, set := range sets {
		for _, sym := range set.Symbols() {
			b, _ := set.Bar(sym)
			series[sym] = append(series[sym], point{t: b.Time, c: b.Close})
		}
	}

	table := NewTable()
	for name, fn := range specs {
		for sym, pts := range series {
			closes := make([]float64, len(pts))
			for i, p := range pts {
				closes[i] = p.c
			}
			vals, err := fn(closes)
			if err != nil {
				return nil, fmt.Errorf("precompute %s(%s): %w", name, sym, err)
			}
			if len(vals) != len(pts) {
				return nil, fmt.Errorf("precompute %s(%s): series length %d != %d bars", name, sym, len(vals), len(pts))
			}
			for i, v := range vals {
				if !math.IsNaN(v) {
					table.Set(name, sym, pts[i].t, v)
				}
			}
		}
	}
	return table, nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
