// Package journal persists backtest output: per-order fill records
// (including rejections), the equity curve, and finalized run summaries.
// Implementations are append-only; records are never updated in place.
package journal

import "time"

// FillStatus values for FillRecord.Status.
const (
	StatusFilled   = "FILLED"
	StatusRejected = "REJECTED"
)

// FillRecord is one executed or rejected order. Rejections carry zero
// quantity and the reason code.
type FillRecord struct {
	RunID    string
	FillID   string
	Symbol   string
	Side     string
	Quantity float64
	Price    float64
	Fee      float64
	Realized float64
	Status   string
	Reason   string
	Time     time.Time
}

// EquityRecord is one point of the equity curve, taken after all of a
// bar's fills were applied.
type EquityRecord struct {
	RunID    string
	Time     time.Time
	Cash     float64
	Equity   float64
	Drawdown float64
}

// RunRecord is the finalized summary of one run.
type RunRecord struct {
	RunID        string
	Strategy     string
	Dataset      string
	Created      time.Time
	Start        time.Time
	End          time.Time
	InitialCash  float64
	FinalEquity  float64
	TotalReturn  float64
	AnnualReturn float64
	MaxDrawdown  float64
	Trades       int
	Wins         int
	Losses       int
	WinRate      float64
}

// Journal records run output.
type Journal interface {
	RecordFill(FillRecord) error
	RecordEquity(EquityRecord) error
	RecordRun(RunRecord) error
	Close() error
}

// Memory is an in-process journal, used by tests and by runs that do not
// persist anything.
type Memory struct {
	Fills  []FillRecord
	Equity []EquityRecord
	Runs   []RunRecord
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) RecordFill(r FillRecord) error {
	m.Fills = append(m.Fills, r)
	return nil
}

func (m *Memory) RecordEquity(r EquityRecord) error {
	m.Equity = append(m.Equity, r)
	return nil
}

func (m *Memory) RecordRun(r RunRecord) error {
	m.Runs = append(m.Runs, r)
	return nil
}

func (m *Memory) Close() error { return nil }
