package engine

import (
	"math"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

// tradingDaysPerYear is the fixed annualization base for daily returns.
const tradingDaysPerYear = 252

// summarize fills the convenience counters on the result. The analysis
// package derives the same figures with fuller degenerate-case coverage;
// these exist so a result is readable without running the analyzer.
func summarize(r *types.BacktestResult) {
	r.WinRate = decimal.Zero
	r.ProfitFactor = decimal.Zero
	r.TotalTrades = len(r.Trades)

	grossWins := decimal.Zero
	grossLosses := decimal.Zero
	for _, trade := range r.Trades {
		if !trade.Closed() {
			continue
		}
		switch {
		case trade.RealizedPnL.IsPositive():
			r.WinningTrades++
			grossWins = grossWins.Add(*trade.RealizedPnL)
		case trade.RealizedPnL.IsNegative():
			r.LosingTrades++
			grossLosses = grossLosses.Add(trade.RealizedPnL.Abs())
		}
	}

	if decided := r.WinningTrades + r.LosingTrades; decided > 0 {
		r.WinRate = decimal.NewFromInt(int64(r.WinningTrades)).
			Div(decimal.NewFromInt(int64(decided))).
			Mul(oneHundred)
	}
	switch {
	case grossLosses.IsPositive():
		r.ProfitFactor = grossWins.Div(grossLosses)
	case grossWins.IsPositive():
		r.ProfitFactor = types.ProfitFactorNoLosses
	}

	returns := dailyReturns(r.Snapshots)
	r.SharpeRatio = annualizedSharpe(returns)
	r.SortinoRatio = annualizedSortino(returns)
	r.MaxDrawdown = maxDrawdownPct(r.Snapshots)
}

// dailyReturns yields the simple day-over-day equity returns as float64.
// Ratio statistics go through floats for sqrt math; money never does.
func dailyReturns(snapshots []types.PortfolioSnapshot) []float64 {
	if len(snapshots) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(snapshots)-1)
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].Equity
		if prev.IsZero() {
			returns = append(returns, 0)
			continue
		}
		r := snapshots[i].Equity.Sub(prev).Div(prev)
		returns = append(returns, r.InexactFloat64())
	}
	return returns
}

func annualizedSharpe(returns []float64) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	mean := meanOf(returns)
	sd := stdevOf(returns, mean)
	if sd == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(mean / sd * math.Sqrt(tradingDaysPerYear))
}

func annualizedSortino(returns []float64) decimal.Decimal {
	if len(returns) < 2 {
		return decimal.Zero
	}
	mean := meanOf(returns)
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) == 0 {
		return decimal.Zero
	}
	dd := stdevOf(downside, meanOf(downside))
	if dd == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(mean / dd * math.Sqrt(tradingDaysPerYear))
}

func maxDrawdownPct(snapshots []types.PortfolioSnapshot) decimal.Decimal {
	maxDD := decimal.Zero
	peak := decimal.Zero
	for _, snap := range snapshots {
		if snap.Equity.GreaterThan(peak) {
			peak = snap.Equity
		}
		if peak.IsPositive() {
			dd := snap.Equity.Sub(peak).Div(peak).Mul(oneHundred)
			if dd.LessThan(maxDD) {
				maxDD = dd
			}
		}
	}
	return maxDD
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdevOf is the population standard deviation around the given mean.
func stdevOf(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
