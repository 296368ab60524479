package report

import (
	"time"

	"quantbt/internal/analysis"
	"quantbt/types"

	"github.com/shopspring/decimal"
)

// Chart primitives are plain coordinate series, independent of the final
// encoding. The SVG and PDF renderers scale the same points; the JSON
// encoding embeds them as-is.

type Point struct {
	T time.Time       `json:"t"`
	Y decimal.Decimal `json:"y"`
}

type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

type HeatmapCell struct {
	Year  int             `json:"year"`
	Month time.Month      `json:"month"`
	Value decimal.Decimal `json:"value"`
}

type ChartData struct {
	EquityCurve    Series        `json:"equity_curve"`
	DrawdownCurve  Series        `json:"drawdown_curve"`
	MonthlyHeatmap []HeatmapCell `json:"monthly_heatmap"`
}

// BuildCharts extracts the chart series from values already present in
// the result and the analysis; it computes nothing new.
func BuildCharts(result *types.BacktestResult, res *analysis.Result) *ChartData {
	charts := &ChartData{
		EquityCurve:   Series{Name: "equity"},
		DrawdownCurve: Series{Name: "drawdown_pct"},
	}
	for _, snap := range result.Snapshots {
		charts.EquityCurve.Points = append(charts.EquityCurve.Points, Point{
			T: snap.Timestamp,
			Y: snap.Equity,
		})
	}
	for i, dd := range res.Drawdown.Curve {
		charts.DrawdownCurve.Points = append(charts.DrawdownCurve.Points, Point{
			T: result.Snapshots[i].Timestamp,
			Y: dd,
		})
	}
	for _, month := range res.Monthly {
		charts.MonthlyHeatmap = append(charts.MonthlyHeatmap, HeatmapCell{
			Year:  month.Year,
			Month: month.Month,
			Value: month.ReturnPct,
		})
	}
	return charts
}
