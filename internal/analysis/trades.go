package analysis

import (
	"quantbt/types"

	"github.com/shopspring/decimal"
)

// analyzeTrades partitions closed trades into winners and losers and
// derives the distribution statistics. Opening trades and flat closes
// (realized PnL exactly zero) count toward totals but not toward the
// win/loss split, so the win rate reflects only decided outcomes.
func analyzeTrades(result *types.BacktestResult) TradeStatistics {
	stats := TradeStatistics{
		TotalTrades:    len(result.Trades),
		RejectedTrades: len(result.Rejections),
		WinRate:        decimal.Zero,
		ProfitFactor:   decimal.Zero,
		AvgWin:         decimal.Zero,
		AvgLoss:        decimal.Zero,
		LargestWin:     decimal.Zero,
		LargestLoss:    decimal.Zero,
		AvgHoldingDays: decimal.Zero,
		TotalFees:      result.TotalFees,
	}

	sumWins := decimal.Zero
	sumLosses := decimal.Zero
	holdingDays := decimal.Zero

	winStreak, lossStreak := 0, 0

	// Trades are already in chronological order; streaks scan closed
	// trades as they occurred.
	for _, trade := range result.Trades {
		if !trade.Closed() {
			continue
		}
		stats.ClosedTrades++

		held := trade.Timestamp.Sub(trade.EntryTime).Hours() / 24
		holdingDays = holdingDays.Add(decimal.NewFromFloat(held))

		pnl := *trade.RealizedPnL
		switch {
		case pnl.IsPositive():
			stats.WinningTrades++
			sumWins = sumWins.Add(pnl)
			if pnl.GreaterThan(stats.LargestWin) {
				stats.LargestWin = pnl
			}
			winStreak++
			lossStreak = 0
		case pnl.IsNegative():
			stats.LosingTrades++
			sumLosses = sumLosses.Add(pnl.Abs())
			if pnl.LessThan(stats.LargestLoss) {
				stats.LargestLoss = pnl
			}
			lossStreak++
			winStreak = 0
		default:
			winStreak, lossStreak = 0, 0
		}
		if winStreak > stats.MaxWinStreak {
			stats.MaxWinStreak = winStreak
		}
		if lossStreak > stats.MaxLossStreak {
			stats.MaxLossStreak = lossStreak
		}
	}

	if decided := stats.WinningTrades + stats.LosingTrades; decided > 0 {
		stats.WinRate = decimal.NewFromInt(int64(stats.WinningTrades)).
			Div(decimal.NewFromInt(int64(decided))).
			Mul(hundred)
	}
	switch {
	case sumLosses.IsPositive():
		stats.ProfitFactor = sumWins.Div(sumLosses)
	case sumWins.IsPositive():
		stats.ProfitFactor = types.ProfitFactorNoLosses
	}
	if stats.WinningTrades > 0 {
		stats.AvgWin = sumWins.Div(decimal.NewFromInt(int64(stats.WinningTrades)))
	}
	if stats.LosingTrades > 0 {
		stats.AvgLoss = sumLosses.Neg().Div(decimal.NewFromInt(int64(stats.LosingTrades)))
	}
	if stats.ClosedTrades > 0 {
		stats.AvgHoldingDays = holdingDays.Div(decimal.NewFromInt(int64(stats.ClosedTrades)))
	}
	return stats
}
