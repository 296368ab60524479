package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// renderPDF writes the print-ready encoding: A4, one section per
// heading, charts drawn from the same coordinate series the SVG renderer
// uses.
func renderPDF(doc *document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.Title, false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, doc.Title, "", 1, "L", false, 0, "")

	for _, section := range doc.Sections {
		switch section {
		case SectionSummary:
			pdfHeading(pdf, "Summary")
			r := doc.Result
			pdfRows(pdf, [][2]string{
				{"Initial capital", fmtDecimal(r.InitialCapital)},
				{"Final value", fmtDecimal(r.FinalValue)},
				{"Total return", fmtDecimal(r.TotalReturn) + "%"},
				{"Total fees", fmtDecimal(r.TotalFees)},
				{"Filled trades", fmt.Sprintf("%d", r.TotalTrades)},
				{"Rejected trades", fmt.Sprintf("%d", len(r.Rejections))},
				{"Win rate", fmtDecimal(r.WinRate) + "%"},
			})
		case SectionPerformance:
			pdfHeading(pdf, "Monthly performance")
			for _, m := range doc.Analysis.Monthly {
				pdfRow(pdf, fmt.Sprintf("%04d-%02d", m.Year, int(m.Month)),
					fmt.Sprintf("%s%%  (equity %s)", fmtDecimal(m.ReturnPct), fmtDecimal(m.EndEquity)))
			}
		case SectionRisk:
			risk := doc.Analysis.Risk
			dd := doc.Analysis.Drawdown
			status := "recovered"
			if !dd.Recovered {
				status = "ongoing"
			}
			pdfHeading(pdf, "Risk")
			pdfRows(pdf, [][2]string{
				{"Sharpe ratio", fmtDecimal(risk.SharpeRatio)},
				{"Sortino ratio", fmtDecimal(risk.SortinoRatio)},
				{"Calmar ratio", fmtDecimal(risk.CalmarRatio)},
				{"Annualized return", fmtDecimal(risk.AnnualizedReturn) + "%"},
				{"VaR 95", risk.VaR95.StringFixed(4)},
				{"CVaR 95", risk.CVaR95.StringFixed(4)},
				{"Ulcer index", fmtDecimal(risk.UlcerIndex)},
				{"Recovery factor", fmtDecimal(risk.RecoveryFactor)},
				{"Max drawdown", fmt.Sprintf("%s%% (%d snapshots, %s)", fmtDecimal(dd.MaxDrawdown), dd.Duration, status)},
			})
		case SectionTrades:
			stats := doc.Analysis.Trades
			pdfHeading(pdf, "Trades")
			pdfRows(pdf, [][2]string{
				{"Total", fmt.Sprintf("%d", stats.TotalTrades)},
				{"Closed", fmt.Sprintf("%d", stats.ClosedTrades)},
				{"Winners / losers", fmt.Sprintf("%d / %d", stats.WinningTrades, stats.LosingTrades)},
				{"Win rate", fmtDecimal(stats.WinRate) + "%"},
				{"Profit factor", fmtProfitFactor(stats.ProfitFactor)},
				{"Avg holding days", fmtDecimal(stats.AvgHoldingDays)},
			})
			pdf.SetFont("Helvetica", "", 8)
			for _, t := range doc.Result.Trades {
				pnl := "-"
				if t.Closed() {
					pnl = fmtDecimal(*t.RealizedPnL)
				}
				line := fmt.Sprintf("%s  %-6s %-4s qty %s @ %s fee %s pnl %s",
					t.Timestamp.Format("2006-01-02"), t.Symbol, t.Side,
					t.Quantity, fmtDecimal(t.FillPrice), fmtDecimal(t.Commission), pnl)
				pdf.CellFormat(0, 4.5, line, "", 1, "L", false, 0, "")
			}
		case SectionPositions:
			pdfHeading(pdf, "Open positions")
			positions := doc.Result.FinalPositions()
			if len(positions) == 0 {
				pdfRow(pdf, "None", "")
				continue
			}
			for _, sym := range sortedKeys(positions) {
				pos := positions[sym]
				pdfRow(pdf, sym, fmt.Sprintf("qty %s, avg %s, last %s, value %s",
					pos.Quantity, fmtDecimal(pos.AvgCost), fmtDecimal(pos.LastPrice), fmtDecimal(pos.Value)))
			}
		case SectionCharts:
			if doc.Charts == nil {
				continue
			}
			pdfHeading(pdf, "Equity curve")
			pdfLineChart(pdf, doc.Charts.EquityCurve, 10, 122, 32)
			pdfHeading(pdf, "Drawdown")
			pdfLineChart(pdf, doc.Charts.DrawdownCurve, 183, 40, 183)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfHeading(pdf *fpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func pdfRow(pdf *fpdf.Fpdf, label, value string) {
	pdf.CellFormat(60, 6, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

func pdfRows(pdf *fpdf.Fpdf, rows [][2]string) {
	for _, row := range rows {
		pdfRow(pdf, row[0], row[1])
	}
}

// pdfLineChart draws a series as connected segments inside a fixed
// frame, mirroring the SVG scaling.
func pdfLineChart(pdf *fpdf.Fpdf, series Series, r, g, b int) {
	const width, height = 180.0, 50.0
	if len(series.Points) == 0 {
		pdfRow(pdf, "No data", "")
		return
	}
	x0, y0 := pdf.GetX(), pdf.GetY()
	pdf.SetDrawColor(200, 200, 200)
	pdf.Rect(x0, y0, width, height, "D")

	minY := series.Points[0].Y.InexactFloat64()
	maxY := minY
	for _, p := range series.Points {
		y := p.Y.InexactFloat64()
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	span := maxY - minY
	if span == 0 {
		span = 1
	}

	pdf.SetDrawColor(r, g, b)
	n := len(series.Points)
	prevX, prevY := 0.0, 0.0
	for i, p := range series.Points {
		px := x0
		if n > 1 {
			px += width * float64(i) / float64(n-1)
		}
		py := y0 + height - height*(p.Y.InexactFloat64()-minY)/span
		if i > 0 {
			pdf.Line(prevX, prevY, px, py)
		}
		prevX, prevY = px, py
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetXY(x0, y0+height+4)
}
