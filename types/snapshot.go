package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionSnapshot struct {
	Symbol    string          `json:"symbol"`
	Quantity  decimal.Decimal `json:"quantity"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
	LastPrice decimal.Decimal `json:"last_price"`
	Value     decimal.Decimal `json:"value"`
}

// PortfolioSnapshot is the end-of-day portfolio state. One snapshot is
// emitted for every distinct bar date in the run, signal or no signal, so
// the equity curve has no gaps. Open positions are marked at that day's
// close, carrying the most recent close forward over data gaps.
type PortfolioSnapshot struct {
	Timestamp     time.Time                   `json:"timestamp"`
	Cash          decimal.Decimal             `json:"cash"`
	Positions     map[string]PositionSnapshot `json:"positions,omitempty"`
	PositionValue decimal.Decimal             `json:"position_value"`
	Equity        decimal.Decimal             `json:"equity"`
}
