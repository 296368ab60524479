package analysis

import (
	"quantbt/types"

	"github.com/shopspring/decimal"
)

// analyzeDrawdown walks the equity curve with a running peak. The deepest
// trough defines the max drawdown; its duration spans from the peak that
// preceded it until equity first regains that peak, or to the end of the
// series when it never does (an open drawdown).
func analyzeDrawdown(snapshots []types.PortfolioSnapshot) DrawdownAnalysis {
	dd := DrawdownAnalysis{
		MaxDrawdown: decimal.Zero,
		PeakEquity:  decimal.Zero,
		Recovered:   true,
	}
	if len(snapshots) == 0 {
		return dd
	}

	dd.Curve = make([]decimal.Decimal, len(snapshots))

	peak := snapshots[0].Equity
	peakIdx := 0
	maxPeakIdx := 0
	maxTroughIdx := 0

	for i, snap := range snapshots {
		if snap.Equity.GreaterThan(peak) {
			peak = snap.Equity
			peakIdx = i
		}
		cur := decimal.Zero
		if peak.IsPositive() {
			cur = snap.Equity.Sub(peak).Div(peak).Mul(hundred)
		}
		dd.Curve[i] = cur
		if cur.LessThan(dd.MaxDrawdown) {
			dd.MaxDrawdown = cur
			maxPeakIdx = peakIdx
			maxTroughIdx = i
		}
	}

	if dd.MaxDrawdown.IsZero() {
		return dd
	}

	dd.PeakEquity = snapshots[maxPeakIdx].Equity
	dd.PeakTime = snapshots[maxPeakIdx].Timestamp
	dd.TroughTime = snapshots[maxTroughIdx].Timestamp

	for i := maxTroughIdx + 1; i < len(snapshots); i++ {
		if !snapshots[i].Equity.LessThan(dd.PeakEquity) {
			dd.Duration = i - maxPeakIdx
			return dd
		}
	}
	dd.Duration = len(snapshots) - 1 - maxPeakIdx
	dd.Recovered = false
	return dd
}

var hundred = decimal.NewFromInt(100)
