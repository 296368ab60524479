package report

import (
	"encoding/json"
	"errors"
	"fmt"

	"quantbt/internal/analysis"
	"quantbt/types"
)

var ErrNoResult = errors.New("no backtest result found in document")

// jsonDocument is the canonical machine-readable encoding: sections are
// emitted as top-level keys, absent sections as nulls, full fidelity
// (no display rounding).
type jsonDocument struct {
	Title       string                            `json:"title"`
	Sections    []Section                         `json:"sections"`
	Summary     *types.BacktestResult             `json:"summary,omitempty"`
	Performance []analysis.PeriodicReturn         `json:"performance,omitempty"`
	Risk        *analysis.RiskMetrics             `json:"risk,omitempty"`
	Trades      []types.Trade                     `json:"trades,omitempty"`
	Rejections  []types.Rejection                 `json:"rejections,omitempty"`
	TradeStats  *analysis.TradeStatistics         `json:"trade_stats,omitempty"`
	Drawdown    *analysis.DrawdownAnalysis        `json:"drawdown,omitempty"`
	Positions   map[string]types.PositionSnapshot `json:"positions,omitempty"`
	Charts      *ChartData                        `json:"charts,omitempty"`
}

func renderJSON(doc *document) ([]byte, error) {
	out := jsonDocument{
		Title:    doc.Title,
		Sections: doc.Sections,
	}
	if doc.has(SectionSummary) {
		out.Summary = doc.Result
		out.Drawdown = &doc.Analysis.Drawdown
	}
	if doc.has(SectionPerformance) {
		out.Performance = doc.Analysis.Monthly
	}
	if doc.has(SectionRisk) {
		out.Risk = &doc.Analysis.Risk
	}
	if doc.has(SectionTrades) {
		out.Trades = doc.Result.Trades
		out.Rejections = doc.Result.Rejections
		out.TradeStats = &doc.Analysis.Trades
	}
	if doc.has(SectionPositions) {
		out.Positions = doc.Result.FinalPositions()
	}
	out.Charts = doc.Charts
	return json.MarshalIndent(out, "", "  ")
}

// DecodeResult extracts the backtest result from a stored JSON report.
// It accepts both the full document this package writes (result under
// the summary key) and a bare result, so hand-built fixtures work. A
// document whose summary section was never included cannot be
// regenerated and fails with ErrNoResult rather than yielding a zeroed
// result.
func DecodeResult(data []byte) (*types.BacktestResult, error) {
	var doc struct {
		Summary *types.BacktestResult `json:"summary"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	if doc.Summary != nil {
		return doc.Summary, nil
	}

	var result types.BacktestResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse result: %w", err)
	}
	if !result.InitialCapital.IsPositive() {
		return nil, ErrNoResult
	}
	return &result, nil
}
