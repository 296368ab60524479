package report

import (
	"fmt"
	"html"
	"strings"
)

// renderHTML writes a self-contained page: inline CSS, no external
// assets, charts as inline SVG built from the shared coordinate series.
func renderHTML(doc *document) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n", html.EscapeString(doc.Title))
	b.WriteString("<style>\n" + reportCSS + "</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<h1>%s</h1>\n", html.EscapeString(doc.Title))

	for _, section := range doc.Sections {
		switch section {
		case SectionSummary:
			htmlSummary(&b, doc)
		case SectionPerformance:
			htmlPerformance(&b, doc)
		case SectionRisk:
			htmlRisk(&b, doc)
		case SectionTrades:
			htmlTrades(&b, doc)
		case SectionPositions:
			htmlPositions(&b, doc)
		case SectionCharts:
			htmlCharts(&b, doc)
		}
	}
	b.WriteString("</body>\n</html>\n")
	return []byte(b.String()), nil
}

const reportCSS = `body{font-family:-apple-system,Segoe UI,sans-serif;margin:2rem;color:#222}
h1{border-bottom:2px solid #444}
h2{margin-top:2rem}
table{border-collapse:collapse;margin:0.5rem 0}
th,td{border:1px solid #ccc;padding:0.3rem 0.7rem;text-align:right}
th:first-child,td:first-child{text-align:left}
.neg{color:#b00020}
.pos{color:#0a7a2f}
svg{background:#fafafa;border:1px solid #ddd}
`

func kvTable(b *strings.Builder, rows [][2]string) {
	b.WriteString("<table>\n")
	for _, row := range rows {
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(row[0]), html.EscapeString(row[1]))
	}
	b.WriteString("</table>\n")
}

func htmlSummary(b *strings.Builder, doc *document) {
	r := doc.Result
	b.WriteString("<h2>Summary</h2>\n")
	kvTable(b, [][2]string{
		{"Initial capital", fmtDecimal(r.InitialCapital)},
		{"Final value", fmtDecimal(r.FinalValue)},
		{"Total return", fmtDecimal(r.TotalReturn) + "%"},
		{"Total fees", fmtDecimal(r.TotalFees)},
		{"Filled trades", fmt.Sprintf("%d", r.TotalTrades)},
		{"Rejected trades", fmt.Sprintf("%d", len(r.Rejections))},
		{"Win rate", fmtDecimal(r.WinRate) + "%"},
		{"Max drawdown", fmtDecimal(doc.Analysis.Drawdown.MaxDrawdown) + "%"},
	})
}

func htmlPerformance(b *strings.Builder, doc *document) {
	b.WriteString("<h2>Monthly performance</h2>\n")
	if len(doc.Analysis.Monthly) == 0 {
		b.WriteString("<p>No completed periods.</p>\n")
		return
	}
	b.WriteString("<table>\n<tr><th>Month</th><th>Return</th><th>End equity</th></tr>\n")
	for _, m := range doc.Analysis.Monthly {
		class := "pos"
		if m.ReturnPct.IsNegative() {
			class = "neg"
		}
		fmt.Fprintf(b, "<tr><td>%04d-%02d</td><td class=\"%s\">%s%%</td><td>%s</td></tr>\n",
			m.Year, int(m.Month), class, fmtDecimal(m.ReturnPct), fmtDecimal(m.EndEquity))
	}
	b.WriteString("</table>\n")
}

func htmlRisk(b *strings.Builder, doc *document) {
	risk := doc.Analysis.Risk
	dd := doc.Analysis.Drawdown
	status := "recovered"
	if !dd.Recovered {
		status = "ongoing"
	}
	b.WriteString("<h2>Risk</h2>\n")
	kvTable(b, [][2]string{
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
}

func htmlTrades(b *strings.Builder, doc *document) {
	stats := doc.Analysis.Trades
	b.WriteString("<h2>Trades</h2>\n")
	kvTable(b, [][2]string{
		{"Total", fmt.Sprintf("%d", stats.TotalTrades)},
		{"Closed", fmt.Sprintf("%d", stats.ClosedTrades)},
		{"Winners / losers", fmt.Sprintf("%d / %d", stats.WinningTrades, stats.LosingTrades)},
		{"Win rate", fmtDecimal(stats.WinRate) + "%"},
		{"Profit factor", fmtProfitFactor(stats.ProfitFactor)},
		{"Avg holding days", fmtDecimal(stats.AvgHoldingDays)},
	})
	if len(doc.Result.Trades) == 0 {
		return
	}
	b.WriteString("<table>\n<tr><th>Date</th><th>Symbol</th><th>Side</th><th>Qty</th><th>Fill</th><th>Fee</th><th>Realized PnL</th></tr>\n")
	for _, t := range doc.Result.Trades {
		pnl := "&ndash;"
		class := ""
		if t.Closed() {
			pnl = fmtDecimal(*t.RealizedPnL)
			if t.RealizedPnL.IsNegative() {
				class = "neg"
			} else {
				class = "pos"
			}
		}
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class=\"%s\">%s</td></tr>\n",
			t.Timestamp.Format("2006-01-02"), html.EscapeString(t.Symbol), t.Side,
			t.Quantity, fmtDecimal(t.FillPrice), fmtDecimal(t.Commission), class, pnl)
	}
	b.WriteString("</table>\n")
}

func htmlPositions(b *strings.Builder, doc *document) {
	b.WriteString("<h2>Open positions</h2>\n")
	positions := doc.Result.FinalPositions()
	if len(positions) == 0 {
		b.WriteString("<p>None.</p>\n")
		return
	}
	b.WriteString("<table>\n<tr><th>Symbol</th><th>Qty</th><th>Avg cost</th><th>Last</th><th>Value</th></tr>\n")
	for _, sym := range sortedKeys(positions) {
		pos := positions[sym]
		fmt.Fprintf(b, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
			html.EscapeString(sym), pos.Quantity, fmtDecimal(pos.AvgCost),
			fmtDecimal(pos.LastPrice), fmtDecimal(pos.Value))
	}
	b.WriteString("</table>\n")
}

func htmlCharts(b *strings.Builder, doc *document) {
	b.WriteString("<h2>Charts</h2>\n")
	if doc.Charts == nil {
		b.WriteString("<p>No chart data.</p>\n")
		return
	}
	b.WriteString("<h3>Equity curve</h3>\n")
	b.WriteString(svgLine(doc.Charts.EquityCurve, "#0a7a2f"))
	b.WriteString("<h3>Drawdown</h3>\n")
	b.WriteString(svgLine(doc.Charts.DrawdownCurve, "#b00020"))
	b.WriteString("<h3>Monthly returns</h3>\n")
	b.WriteString(svgHeatmap(doc.Charts.MonthlyHeatmap))
}

const (
	svgWidth  = 640.0
	svgHeight = 240.0
	svgPad    = 10.0
)

// svgLine scales a coordinate series into a fixed viewBox polyline.
// Scaling is presentation only; the underlying numbers travel unchanged
// in the JSON encoding.
func svgLine(series Series, stroke string) string {
	if len(series.Points) == 0 {
		return "<p>No data.</p>\n"
	}
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

	var points []string
	n := len(series.Points)
	for i, p := range series.Points {
		x := svgPad
		if n > 1 {
			x += (svgWidth - 2*svgPad) * float64(i) / float64(n-1)
		}
		y := svgHeight - svgPad - (svgHeight-2*svgPad)*(p.Y.InexactFloat64()-minY)/span
		points = append(points, fmt.Sprintf("%.1f,%.1f", x, y))
	}
	return fmt.Sprintf("<svg viewBox=\"0 0 %.0f %.0f\" width=\"%.0f\" height=\"%.0f\">\n<polyline fill=\"none\" stroke=\"%s\" stroke-width=\"1.5\" points=\"%s\"/>\n</svg>\n",
		svgWidth, svgHeight, svgWidth, svgHeight, stroke, strings.Join(points, " "))
}

// svgHeatmap lays months on the x axis and years on the y axis, shading
// cells green for gains and red for losses.
func svgHeatmap(cells []HeatmapCell) string {
	if len(cells) == 0 {
		return "<p>No data.</p>\n"
	}
	years := make(map[int]int)
	for _, c := range cells {
		if _, ok := years[c.Year]; !ok {
			years[c.Year] = len(years)
		}
	}
	const cw, ch = 48.0, 28.0
	width := 12*cw + 2*svgPad
	height := float64(len(years))*ch + 2*svgPad

	var b strings.Builder
	fmt.Fprintf(&b, "<svg viewBox=\"0 0 %.0f %.0f\" width=\"%.0f\" height=\"%.0f\">\n", width, height, width, height)
	for _, c := range cells {
		x := svgPad + float64(int(c.Month)-1)*cw
		y := svgPad + float64(years[c.Year])*ch
		fill := "#c8e6c9"
		if c.Value.IsNegative() {
			fill = "#ffcdd2"
		}
		fmt.Fprintf(&b, "<rect x=\"%.1f\" y=\"%.1f\" width=\"%.1f\" height=\"%.1f\" fill=\"%s\" stroke=\"#fff\"/>\n", x, y, cw, ch, fill)
		fmt.Fprintf(&b, "<text x=\"%.1f\" y=\"%.1f\" font-size=\"9\" text-anchor=\"middle\">%s</text>\n",
			x+cw/2, y+ch/2+3, fmtDecimal(c.Value))
	}
	b.WriteString("</svg>\n")
	return b.String()
}
