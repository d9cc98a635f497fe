package engine

import (
	"time"

	"github.com/quantbench/backsim/portfolio"
)

// QuantityKind says how an intent's amount is denominated.
type QuantityKind uint8

const (
	// Count: amount is already in tradable units.
	Count QuantityKind = iota
	// Cash: amount is currency to deploy (buys) or raise (sells).
	Cash
	// Weight: amount is a target fraction of total equity for the symbol,
	// not an incremental delta. Weight 0 liquidates the position.
	Weight
)

func (k QuantityKind) String() string {
	switch k {
	case Count:
		return "count"
	case Cash:
		return "cash"
	case Weight:
		return "weight"
	default:
		return "unknown"
	}
}

func (k QuantityKind) valid() bool { return k <= Weight }

// Intent is a strategy's raw order request for the current bar. Intents are
// ephemeral: produced fresh each bar, never persisted. For Weight intents
// the side is derived from the target, so Side is ignored.
type Intent struct {
	Symbol string
	Side   portfolio.Side
	Kind   QuantityKind
	Amount float64
}

// BatchEntry is one (symbol, amount) pair of a batch intent. Batches keep
// submission order; all entries share one quantity kind.
type BatchEntry struct {
	Symbol string
	Amount float64
}

// Order is a resolved intent: a concrete unit quantity to execute on the
// current bar.
type Order struct {
	Symbol   string
	Side     portfolio.Side
	Quantity float64
	Time     time.Time
}

// RejectReason codes why an order produced no fill. They are stable
// strings so strategies and stored journals can branch on them.
type RejectReason string

const (
	RejectInvalidIntent        RejectReason = "INVALID_INTENT"
	RejectDataGap              RejectReason = "DATA_GAP"
	RejectSettlement           RejectReason = "SETTLEMENT_VIOLATION"
	RejectInsufficientCash     RejectReason = "INSUFFICIENT_CASH"
	RejectInsufficientPosition RejectReason = "INSUFFICIENT_POSITION"
	RejectPositionLimit        RejectReason = "POSITION_LIMIT"
)

// Execution is the outcome of one order: either a fill, or a rejection
// carrying a zero-quantity fill record and a reason. Rejections are
// per-order and non-fatal; the run always continues.
type Execution struct {
	Fill     portfolio.Fill
	Rejected bool
	Reason   RejectReason
}
