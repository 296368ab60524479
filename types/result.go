package types

import "github.com/shopspring/decimal"

// ProfitFactorNoLosses marks a profit factor for a run with winning
// trades and no losing ones. A genuine profit factor is never negative,
// so -1 is unambiguous; report encoders render it as "inf".
var ProfitFactorNoLosses = decimal.NewFromInt(-1)

// BacktestResult is the complete output of one simulation run. The engine
// builds it in a single forward pass and never mutates it afterward.
//
// The trailing counters are conveniences computed by the engine; the
// analysis package derives the same figures (and more) with the full
// degenerate-case handling report consumers should rely on.
type BacktestResult struct {
	InitialCapital decimal.Decimal     `json:"initial_capital"`
	FinalValue     decimal.Decimal     `json:"final_value"`
	TotalReturn    decimal.Decimal     `json:"total_return_pct"`
	TotalFees      decimal.Decimal     `json:"total_fees"`
	Trades         []Trade             `json:"trades"`
	// Rejections are ordered by date; within one day, caller signal
	// order is preserved.
	Rejections []Rejection         `json:"rejections,omitempty"`
	Snapshots  []PortfolioSnapshot `json:"snapshots"`

	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	WinRate       decimal.Decimal `json:"win_rate_pct"`
	ProfitFactor  decimal.Decimal `json:"profit_factor"`
	MaxDrawdown   decimal.Decimal `json:"max_drawdown_pct"`
	SharpeRatio   decimal.Decimal `json:"sharpe_ratio"`
	SortinoRatio  decimal.Decimal `json:"sortino_ratio"`
}

// FinalPositions returns the open positions on the last snapshot, or nil
// for an empty run.
func (r *BacktestResult) FinalPositions() map[string]PositionSnapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return r.Snapshots[len(r.Snapshots)-1].Positions
}

// EquityCurve extracts the per-day equity series from the snapshots.
func (r *BacktestResult) EquityCurve() []decimal.Decimal {
	curve := make([]decimal.Decimal, len(r.Snapshots))
	for i, snap := range r.Snapshots {
		curve[i] = snap.Equity
	}
	return curve
}
