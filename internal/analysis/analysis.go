// Package analysis derives risk-adjusted performance statistics from a
// finished backtest. Everything here is a pure read over the immutable
// result; analyzing the same result twice yields identical output.
package analysis

import (
	"sync"
	"time"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

// tradingDaysPerYear is the fixed annualization base for daily returns.
const tradingDaysPerYear = 252

type Result struct {
	Risk     RiskMetrics      `json:"risk"`
	Trades   TradeStatistics  `json:"trades"`
	Drawdown DrawdownAnalysis `json:"drawdown"`
	Monthly  []PeriodicReturn `json:"monthly"`
}

// RiskMetrics groups the ratio-family statistics. MaxDrawdown and
// MaxDrawdownDuration are copied from the DrawdownAnalysis walk so the
// risk block is self-contained; DrawdownAnalysis stays the source for
// peak/trough detail.
type RiskMetrics struct {
	SharpeRatio         decimal.Decimal `json:"sharpe_ratio"`
	SortinoRatio        decimal.Decimal `json:"sortino_ratio"`
	CalmarRatio         decimal.Decimal `json:"calmar_ratio"`
	AnnualizedReturn    decimal.Decimal `json:"annualized_return_pct"`
	VaR95               decimal.Decimal `json:"var_95"`
	CVaR95              decimal.Decimal `json:"cvar_95"`
	UlcerIndex          decimal.Decimal `json:"ulcer_index"`
	MaxDrawdown         decimal.Decimal `json:"max_drawdown_pct"`
	MaxDrawdownDuration int             `json:"max_drawdown_duration"`
	RecoveryFactor      decimal.Decimal `json:"recovery_factor"`
}

type TradeStatistics struct {
	TotalTrades    int             `json:"total_trades"`
	ClosedTrades   int             `json:"closed_trades"`
	WinningTrades  int             `json:"winning_trades"`
	LosingTrades   int             `json:"losing_trades"`
	RejectedTrades int             `json:"rejected_trades"`
	WinRate        decimal.Decimal `json:"win_rate_pct"`
	ProfitFactor   decimal.Decimal `json:"profit_factor"`
	AvgWin         decimal.Decimal `json:"avg_win"`
	AvgLoss        decimal.Decimal `json:"avg_loss"`
	LargestWin     decimal.Decimal `json:"largest_win"`
	LargestLoss    decimal.Decimal `json:"largest_loss"`
	MaxWinStreak   int             `json:"max_win_streak"`
	MaxLossStreak  int             `json:"max_loss_streak"`
	AvgHoldingDays decimal.Decimal `json:"avg_holding_days"`
	TotalFees      decimal.Decimal `json:"total_fees"`
}

type DrawdownAnalysis struct {
	MaxDrawdown decimal.Decimal `json:"max_drawdown_pct"`
	PeakEquity  decimal.Decimal `json:"peak_equity"`
	PeakTime    time.Time       `json:"peak_time"`
	TroughTime  time.Time       `json:"trough_time"`
	// Duration counts snapshots from the peak preceding the deepest
	// trough until equity regains that peak; when Recovered is false the
	// drawdown is still open and Duration runs to the end of the series.
	Duration  int  `json:"duration_snapshots"`
	Recovered bool `json:"recovered"`

	// Curve is the full underwater series (percent, <= 0), one entry per
	// snapshot. It feeds the ulcer index and the underwater chart.
	Curve []decimal.Decimal `json:"-"`
}

type PeriodicReturn struct {
	Year      int             `json:"year"`
	Month     time.Month      `json:"month"`
	ReturnPct decimal.Decimal `json:"return_pct"`
	EndEquity decimal.Decimal `json:"end_equity"`
}

// Analyze computes the full statistics set for a result. The metric
// groups are independent reads over the same immutable result, so they
// run concurrently.
func Analyze(result *types.BacktestResult) *Result {
	out := &Result{}
	returns := dailyReturns(result.Snapshots)

	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		out.Drawdown = analyzeDrawdown(result.Snapshots)
	}()
	go func() {
		defer wg.Done()
		out.Trades = analyzeTrades(result)
	}()
	go func() {
		defer wg.Done()
		out.Monthly = monthlyReturns(result)
	}()
	go func() {
		defer wg.Done()
		// Risk metrics need the drawdown walk too; recomputing it keeps
		// the goroutines free of ordering between each other.
		out.Risk = analyzeRisk(result, returns, analyzeDrawdown(result.Snapshots))
	}()
	wg.Wait()
	return out
}

// dailyReturns converts the equity curve into simple day-over-day
// returns. A zero prior equity (wiped-out account under margin)
// contributes a zero return rather than a division blow-up.
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
		returns = append(returns, snapshots[i].Equity.Sub(prev).Div(prev).InexactFloat64())
	}
	return returns
}
