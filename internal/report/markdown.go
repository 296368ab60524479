package report

import (
	"fmt"
	"strings"
)

// renderMarkdown writes the plain-text report: labeled figures in
// grouped blocks, trades and rejections as tables.
func renderMarkdown(doc *document) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", doc.Title)

	for _, section := range doc.Sections {
		switch section {
		case SectionSummary:
			markdownSummary(&b, doc)
		case SectionPerformance:
			markdownPerformance(&b, doc)
		case SectionRisk:
			markdownRisk(&b, doc)
		case SectionTrades:
			markdownTrades(&b, doc)
		case SectionPositions:
			markdownPositions(&b, doc)
		case SectionCharts:
			markdownCharts(&b, doc)
		}
	}
	return []byte(b.String()), nil
}

func markdownSummary(b *strings.Builder, doc *document) {
	r := doc.Result
	fmt.Fprintf(b, "\n## Summary\n\n")
	fmt.Fprintf(b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Initial capital | %s |\n", fmtDecimal(r.InitialCapital))
	fmt.Fprintf(b, "| Final value | %s |\n", fmtDecimal(r.FinalValue))
	fmt.Fprintf(b, "| Total return | %s%% |\n", fmtDecimal(r.TotalReturn))
	fmt.Fprintf(b, "| Total fees | %s |\n", fmtDecimal(r.TotalFees))
	fmt.Fprintf(b, "| Trades | %d (%d filled, %d rejected) |\n",
		r.TotalTrades+len(r.Rejections), r.TotalTrades, len(r.Rejections))
	fmt.Fprintf(b, "| Win rate | %s%% |\n", fmtDecimal(r.WinRate))
	fmt.Fprintf(b, "| Max drawdown | %s%% |\n", fmtDecimal(doc.Analysis.Drawdown.MaxDrawdown))
}

func markdownPerformance(b *strings.Builder, doc *document) {
	fmt.Fprintf(b, "\n## Monthly performance\n\n")
	if len(doc.Analysis.Monthly) == 0 {
		fmt.Fprintf(b, "No completed periods.\n")
		return
	}
	fmt.Fprintf(b, "| Month | Return | End equity |\n|---|---|---|\n")
	for _, m := range doc.Analysis.Monthly {
		fmt.Fprintf(b, "| %04d-%02d | %s%% | %s |\n",
			m.Year, int(m.Month), fmtDecimal(m.ReturnPct), fmtDecimal(m.EndEquity))
	}
}

func markdownRisk(b *strings.Builder, doc *document) {
	risk := doc.Analysis.Risk
	dd := doc.Analysis.Drawdown
	fmt.Fprintf(b, "\n## Risk\n\n")
	fmt.Fprintf(b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Sharpe ratio | %s |\n", fmtDecimal(risk.SharpeRatio))
	fmt.Fprintf(b, "| Sortino ratio | %s |\n", fmtDecimal(risk.SortinoRatio))
	fmt.Fprintf(b, "| Calmar ratio | %s |\n", fmtDecimal(risk.CalmarRatio))
	fmt.Fprintf(b, "| Annualized return | %s%% |\n", fmtDecimal(risk.AnnualizedReturn))
	fmt.Fprintf(b, "| VaR 95 | %s |\n", risk.VaR95.StringFixed(4))
	fmt.Fprintf(b, "| CVaR 95 | %s |\n", risk.CVaR95.StringFixed(4))
	fmt.Fprintf(b, "| Ulcer index | %s |\n", fmtDecimal(risk.UlcerIndex))
	fmt.Fprintf(b, "| Recovery factor | %s |\n", fmtDecimal(risk.RecoveryFactor))
	status := "recovered"
	if !dd.Recovered {
		status = "ongoing"
	}
	fmt.Fprintf(b, "| Max drawdown | %s%% (%d snapshots, %s) |\n",
		fmtDecimal(dd.MaxDrawdown), dd.Duration, status)
}

func markdownTrades(b *strings.Builder, doc *document) {
	stats := doc.Analysis.Trades
	fmt.Fprintf(b, "\n## Trades\n\n")
	fmt.Fprintf(b, "| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Total | %d |\n", stats.TotalTrades)
	fmt.Fprintf(b, "| Closed | %d |\n", stats.ClosedTrades)
	fmt.Fprintf(b, "| Winners / losers | %d / %d |\n", stats.WinningTrades, stats.LosingTrades)
	fmt.Fprintf(b, "| Rejected | %d |\n", stats.RejectedTrades)
	fmt.Fprintf(b, "| Win rate | %s%% |\n", fmtDecimal(stats.WinRate))
	fmt.Fprintf(b, "| Profit factor | %s |\n", fmtProfitFactor(stats.ProfitFactor))
	fmt.Fprintf(b, "| Avg win / avg loss | %s / %s |\n", fmtDecimal(stats.AvgWin), fmtDecimal(stats.AvgLoss))
	fmt.Fprintf(b, "| Max win / loss streak | %d / %d |\n", stats.MaxWinStreak, stats.MaxLossStreak)
	fmt.Fprintf(b, "| Avg holding days | %s |\n", fmtDecimal(stats.AvgHoldingDays))

	if len(doc.Result.Trades) > 0 {
		fmt.Fprintf(b, "\n| Date | Symbol | Side | Qty | Fill | Fee | Realized PnL |\n|---|---|---|---|---|---|---|\n")
		for _, t := range doc.Result.Trades {
			pnl := "-"
			if t.Closed() {
				pnl = fmtDecimal(*t.RealizedPnL)
			}
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				t.Timestamp.Format("2006-01-02"), t.Symbol, t.Side,
				t.Quantity, fmtDecimal(t.FillPrice), fmtDecimal(t.Commission), pnl)
		}
	}
	if len(doc.Result.Rejections) > 0 {
		fmt.Fprintf(b, "\n| Date | Symbol | Side | Qty | Reason |\n|---|---|---|---|---|\n")
		for _, rej := range doc.Result.Rejections {
			fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
				rej.Timestamp.Format("2006-01-02"), rej.Symbol, rej.Side, rej.Quantity, rej.Reason)
		}
	}
}

func markdownPositions(b *strings.Builder, doc *document) {
	fmt.Fprintf(b, "\n## Open positions\n\n")
	positions := doc.Result.FinalPositions()
	if len(positions) == 0 {
		fmt.Fprintf(b, "None.\n")
		return
	}
	fmt.Fprintf(b, "| Symbol | Qty | Avg cost | Last | Value |\n|---|---|---|---|---|\n")
	for _, sym := range sortedKeys(positions) {
		pos := positions[sym]
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			sym, pos.Quantity, fmtDecimal(pos.AvgCost), fmtDecimal(pos.LastPrice), fmtDecimal(pos.Value))
	}
}

// markdownCharts renders the heatmap as a table and points readers at the
// JSON encoding for the raw curves; markdown has no vector canvas.
func markdownCharts(b *strings.Builder, doc *document) {
	fmt.Fprintf(b, "\n## Charts\n\n")
	if doc.Charts == nil || len(doc.Charts.MonthlyHeatmap) == 0 {
		fmt.Fprintf(b, "No chart data.\n")
		return
	}
	fmt.Fprintf(b, "Monthly return heatmap (equity and drawdown series are in the JSON encoding):\n\n")
	fmt.Fprintf(b, "| Month | Return |\n|---|---|\n")
	for _, cell := range doc.Charts.MonthlyHeatmap {
		fmt.Fprintf(b, "| %04d-%02d | %s%% |\n", cell.Year, int(cell.Month), fmtDecimal(cell.Value))
	}
}
