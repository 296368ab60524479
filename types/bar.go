package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one daily OHLCV observation for a symbol. Timestamps carry date
// granularity only (UTC midnight); a series holds one bar per trading day.
type Bar struct {
	Symbol    string          `json:"symbol"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewBar(symbol string, timestamp time.Time, open, high, low, close decimal.Decimal, volume int64) Bar {
	return Bar{
		Symbol:    symbol,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    volume,
		Timestamp: Day(timestamp),
	}
}

// Day truncates a timestamp to its UTC date. All engine bookkeeping is
// keyed on day-truncated times so bars and signals from sources with
// differing time-of-day conventions line up.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
