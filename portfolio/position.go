package portfolio

import "time"

// Lot is a quantity acquired at one bar timestamp, carried so settlement
// eligibility can be decided per acquisition date.
type Lot struct {
	Quantity float64
	Price    float64
	Acquired time.Time
}

// Position aggregates a symbol's lots: net quantity and volume-weighted
// average cost. Quantity never goes negative; short selling is not modeled.
type Position struct {
	Symbol   string
	Quantity float64
	AvgCost  float64
	Lots     []Lot
}

// MarketValue returns quantity * price.
func (p Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// UnrealizedPL returns the open P&L against average cost at the given price.
func (p Position) UnrealizedPL(price float64) float64 {
	return p.Quantity * (price - p.AvgCost)
}

// settledQuantity returns the quantity held in lots acquired strictly
// before now. Lots age by exactly one bar: anything acquired at an earlier
// bar timestamp counts as settled.
func (p Position) settledQuantity(now time.Time) float64 {
	var settled float64
	for _, lot := range p.Lots {
		if lot.Acquired.Before(now) {
			settled += lot.Quantity
		}
	}
	return settled
}

// clone returns a deep copy so callers cannot mutate ledger-owned lots.
func (p Position) clone() Position {
	cp := p
	cp.Lots = make([]Lot, len(p.Lots))
	copy(cp.Lots, p.Lots)
	return cp
}
