package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a filled execution recorded by the engine.
//
// RealizedPnL is set only on trades that reduce or close an existing
// position, using the position's weighted-average cost at fill time, net
// of the closing commission. EntryTime on such trades is the day the
// position was opened from flat.
type Trade struct {
	Symbol         string           `json:"symbol"`
	Side           Side             `json:"side"`
	Quantity       decimal.Decimal  `json:"quantity"`
	RequestedPrice decimal.Decimal  `json:"requested_price"`
	FillPrice      decimal.Decimal  `json:"fill_price"`
	Notional       decimal.Decimal  `json:"notional"`
	Commission     decimal.Decimal  `json:"commission"`
	RealizedPnL    *decimal.Decimal `json:"realized_pnl,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	EntryTime      time.Time        `json:"entry_time"`
	Timestamp      time.Time        `json:"timestamp"`
}

// Closed reports whether the trade realized profit or loss.
func (t Trade) Closed() bool {
	return t.RealizedPnL != nil
}

type RejectReason string

const (
	ReasonNoBarOnDate          RejectReason = "NO_BAR_ON_DATE"
	ReasonInsufficientCash     RejectReason = "INSUFFICIENT_CASH"
	ReasonInsufficientPosition RejectReason = "INSUFFICIENT_POSITION"
	ReasonFractionalNotAllowed RejectReason = "FRACTIONAL_NOT_ALLOWED"
	ReasonNonPositiveQuantity  RejectReason = "NON_POSITIVE_QUANTITY"
	ReasonUnknownSide          RejectReason = "UNKNOWN_SIDE"
)

// Rejection records a signal the engine declined to execute. Rejections
// are part of the result so callers can audit every skipped trade; they
// never alter cash or positions.
type Rejection struct {
	Symbol    string          `json:"symbol"`
	Side      Side            `json:"side"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    RejectReason    `json:"reason"`
	Detail    string          `json:"detail,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
