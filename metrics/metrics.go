// Package metrics accumulates run performance: the per-bar equity curve
// with running drawdown, the trade log, and finalized summary statistics.
// It only ever reads portfolio state snapshots; it never mutates them.
package metrics

import (
	"math"
	"time"

	"github.com/quantbench/backsim/portfolio"
)

// Point is one bar's equity snapshot.
type Point struct {
	Time     time.Time
	Cash     float64
	Equity   float64
	Drawdown float64 // 1 - equity/peak
}

// Summary is the finalized statistics of a run.
type Summary struct {
	Start        time.Time
	End          time.Time
	InitialCash  float64
	FinalEquity  float64
	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	Trades       int // completed round trips (sells)
	Wins         int
	Losses       int
	WinRate      float64
}

// Recorder collects per-bar snapshots and fills during a run. Not safe for
// concurrent use; the run loop records strictly sequentially.
type Recorder struct {
	initialCash float64
	points      []Point
	fills       []portfolio.Fill
	peak        float64
	maxDD       float64
	wins        int
	losses      int
	trades      int
}

// NewRecorder starts a recorder for a run with the given initial cash.
func NewRecorder(initialCash float64) *Recorder {
	return &Recorder{initialCash: initialCash, peak: initialCash}
}

// RecordBar appends an equity point after a bar's fills were applied and
// returns it with drawdown filled in.
func (r *Recorder) RecordBar(t time.Time, cash, equity float64) Point {
	if equity > r.peak {
		r.peak = equity
	}
	dd := 0.0
	if r.peak > 0 {
		dd = 1 - equity/r.peak
	}
	if dd > r.maxDD {
		r.maxDD = dd
	}

	p := Point{Time: t, Cash: cash, Equity: equity, Drawdown: dd}
	r.points = append(r.points, p)
	return p
}

// RecordFill appends a fill to the trade log. A sell completes a round
// trip and is scored by its realized P&L.
func (r *Recorder) RecordFill(f portfolio.Fill) {
	r.fills = append(r.fills, f)
	if f.Side != portfolio.Sell {
		return
	}
	r.trades++
	if f.Realized > 0 {
		r.wins++
	} else {
		r.losses++
	}
}

// Curve returns the recorded equity curve.
func (r *Recorder) Curve() []Point { return r.points }

// Fills returns the trade log in execution order.
func (r *Recorder) Fills() []portfolio.Fill { return r.fills }

// Summary finalizes the run statistics. Annualization uses calendar time
// between the first and last bar, falling back to a 252-bars-per-year
// assumption when the curve spans less than a day.
func (r *Recorder) Summary() Summary {
	s := Summary{
		InitialCash: r.initialCash,
		MaxDrawdown: r.maxDD,
		Trades:      r.trades,
		Wins:        r.wins,
		Losses:      r.losses,
	}
	if r.trades > 0 {
		s.WinRate = float64(r.wins) / float64(r.trades)
	}
	if len(r.points) == 0 {
		s.FinalEquity = r.initialCash
		return s
	}

	s.Start = r.points[0].Time
	s.End = r.points[len(r.points)-1].Time
	s.FinalEquity = r.points[len(r.points)-1].Equity
	s.TotalReturn = s.FinalEquity/r.initialCash - 1

	years := s.End.Sub(s.Start).Hours() / (24 * 365.25)
	if years <= 0 {
		years = float64(len(r.points)-1) / 252
	}
	if years > 0 && s.FinalEquity > 0 {
		s.AnnualReturn = math.Pow(s.FinalEquity/r.initialCash, 1/years) - 1
	}
	return s
}
