package portfolio

import "time"

// Side: +1 buy, -1 sell.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Fill is an executed order: quantity is always positive, the side carries
// direction, and the price already includes slippage. Fills are append-only
// records and are never mutated after creation.
type Fill struct {
	ID       string
	Symbol   string
	Side     Side
	Quantity float64
	Price    float64
	Fee      float64
	Realized float64 // realized P&L net of fee; zero for buys
	Time     time.Time
}

// Notional returns quantity * price, before fees.
func (f Fill) Notional() float64 {
	return f.Quantity * f.Price
}
