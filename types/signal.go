package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is an instruction to trade a quantity of a symbol on a given day.
// Signals come from outside the engine (a strategy pipeline, a fixture
// file); the engine executes them in the order the caller supplies.
type Signal struct {
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewSignal(symbol string, side Side, quantity decimal.Decimal, reason string, timestamp time.Time) Signal {
	return Signal{
		Symbol:    symbol,
		Side:      side,
		Quantity:  quantity,
		Reason:    reason,
		Timestamp: Day(timestamp),
	}
}
