package analysis

import (
	"quantbt/types"

	"github.com/shopspring/decimal"
)

// monthlyReturns groups snapshots by calendar month and computes each
// month's return off the prior month's closing equity, with the first
// month anchored to the initial capital. Snapshots arrive in
// chronological order, so a single pass suffices.
func monthlyReturns(result *types.BacktestResult) []PeriodicReturn {
	if len(result.Snapshots) == 0 {
		return nil
	}

	var periods []PeriodicReturn
	for _, snap := range result.Snapshots {
		y, m, _ := snap.Timestamp.Date()
		if n := len(periods); n > 0 && periods[n-1].Year == y && periods[n-1].Month == m {
			periods[n-1].EndEquity = snap.Equity
			continue
		}
		periods = append(periods, PeriodicReturn{
			Year:      y,
			Month:     m,
			EndEquity: snap.Equity,
		})
	}

	prior := result.InitialCapital
	for i := range periods {
		if prior.IsPositive() {
			periods[i].ReturnPct = periods[i].EndEquity.Sub(prior).Div(prior).Mul(hundred)
		} else {
			periods[i].ReturnPct = decimal.Zero
		}
		prior = periods[i].EndEquity
	}
	return periods
}
