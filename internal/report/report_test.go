package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"quantbt/internal/analysis"
	"quantbt/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func fixtureResult() (*types.BacktestResult, *analysis.Result) {
	day := func(s string) time.Time {
		t, _ := time.Parse("2006-01-02", s)
		return t
	}
	pnl := dec("359.9135")
	result := &types.BacktestResult{
		InitialCapital: dec("100000"),
		FinalValue:     dec("100346.8004"),
		TotalReturn:    dec("0.3468004"),
		TotalFees:      dec("26.5996"),
		Trades: []types.Trade{
			{
				Symbol: "AAPL", Side: types.SideBuy, Quantity: dec("100"),
				RequestedPrice: dec("131"), FillPrice: dec("131.131"),
				Notional: dec("13113.1"), Commission: dec("13.1131"),
				Timestamp: day("2024-01-02"),
			},
			{
				Symbol: "AAPL", Side: types.SideSell, Quantity: dec("100"),
				RequestedPrice: dec("135"), FillPrice: dec("134.865"),
				Notional: dec("13486.5"), Commission: dec("13.4865"),
				RealizedPnL: &pnl, EntryTime: day("2024-01-02"),
				Timestamp: day("2024-01-04"),
			},
		},
		Rejections: []types.Rejection{
			{
				Symbol: "MSFT", Side: types.SideSell, Quantity: dec("10"),
				Reason: types.ReasonInsufficientPosition, Timestamp: day("2024-01-03"),
			},
		},
		Snapshots: []types.PortfolioSnapshot{
			{Timestamp: day("2024-01-02"), Cash: dec("86873.7869"), PositionValue: dec("13100"), Equity: dec("99973.7869")},
			{Timestamp: day("2024-01-03"), Cash: dec("86873.7869"), PositionValue: dec("13300"), Equity: dec("100173.7869")},
			{Timestamp: day("2024-01-04"), Cash: dec("100346.8004"), PositionValue: decimal.Zero, Equity: dec("100346.8004")},
		},
		TotalTrades:   2,
		WinningTrades: 1,
		WinRate:       dec("100"),
		ProfitFactor:  types.ProfitFactorNoLosses,
	}
	return result, analysis.Analyze(result)
}

func TestGenerateValidation(t *testing.T) {
	result, res := fixtureResult()

	t.Run("unknown format", func(t *testing.T) {
		_, err := Generate(result, res, Config{Format: "xml"})
		assert.ErrorIs(t, err, ErrUnknownFormat)
	})
	t.Run("unknown section", func(t *testing.T) {
		_, err := Generate(result, res, Config{Format: FormatJSON, Sections: []Section{"FOO"}})
		assert.ErrorIs(t, err, ErrUnknownSection)
	})
	t.Run("nil inputs", func(t *testing.T) {
		_, err := Generate(nil, nil, Config{Format: FormatJSON})
		assert.ErrorIs(t, err, ErrNilInput)
	})
}

func TestGenerateJSONIsCanonical(t *testing.T) {
	result, res := fixtureResult()
	out, err := Generate(result, res, Config{Format: FormatJSON, Title: "Worked scenario"})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "Worked scenario", doc["title"])
	for _, key := range []string{"summary", "performance", "risk", "trades", "charts"} {
		assert.Contains(t, doc, key)
	}
	// Full fidelity: the unrounded fill price travels through.
	assert.Contains(t, string(out), "131.131")
}

func TestGenerateJSONRoundTripsResult(t *testing.T) {
	result, res := fixtureResult()
	out, err := Generate(result, res, Config{Format: FormatJSON, Sections: []Section{SectionSummary}})
	require.NoError(t, err)

	var doc struct {
		Summary types.BacktestResult `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.True(t, doc.Summary.FinalValue.Equal(result.FinalValue))
	assert.Len(t, doc.Summary.Snapshots, len(result.Snapshots))
}

func TestGenerateMarkdown(t *testing.T) {
	result, res := fixtureResult()
	out, err := Generate(result, res, Config{Format: FormatMarkdown})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# Backtest Report")
	assert.Contains(t, text, "## Summary")
	assert.Contains(t, text, "## Risk")
	assert.Contains(t, text, "100346.80")
	assert.Contains(t, text, "INSUFFICIENT_POSITION")
	// The no-losses sentinel renders as inf, never as -1.
	assert.Contains(t, text, "| Profit factor | inf |")
}

func TestGenerateMarkdownSectionSubset(t *testing.T) {
	result, res := fixtureResult()
	out, err := Generate(result, res, Config{
		Format:   FormatMarkdown,
		Sections: []Section{SectionRisk, SectionSummary},
	})
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "## Summary")
	assert.Contains(t, text, "## Risk")
	assert.NotContains(t, text, "## Trades")
	// Canonical ordering regardless of request order.
	assert.Less(t, strings.Index(text, "## Summary"), strings.Index(text, "## Risk"))
}

func TestGenerateHTMLSelfContained(t *testing.T) {
	result, res := fixtureResult()
	out, err := Generate(result, res, Config{Format: FormatHTML})
	require.NoError(t, err)

	text := string(out)
	assert.True(t, strings.HasPrefix(text, "<!DOCTYPE html>"))
	assert.Contains(t, text, "<style>")
	assert.Contains(t, text, "<svg", "charts render as inline SVG")
	assert.Contains(t, text, "<polyline")
	assert.NotContains(t, text, "src=", "no external assets")
}

func TestGeneratePDF(t *testing.T) {
	result, res := fixtureResult()
	out, err := Generate(result, res, Config{Format: FormatPDF})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output is a PDF document")
}

func TestGenerateDeterministic(t *testing.T) {
	result, res := fixtureResult()
	for _, format := range []Format{FormatJSON, FormatMarkdown, FormatHTML} {
		a, err := Generate(result, res, Config{Format: format})
		require.NoError(t, err)
		b, err := Generate(result, res, Config{Format: format})
		require.NoError(t, err)
		assert.Equal(t, a, b, "format %s", format)
	}
}

func TestDecodeResultRoundTrip(t *testing.T) {
	result, res := fixtureResult()

	t.Run("full document", func(t *testing.T) {
		out, err := Generate(result, res, Config{Format: FormatJSON})
		require.NoError(t, err)

		decoded, err := DecodeResult(out)
		require.NoError(t, err)
		assert.True(t, decoded.InitialCapital.Equal(result.InitialCapital))
		assert.True(t, decoded.FinalValue.Equal(result.FinalValue))
		assert.Len(t, decoded.Trades, len(result.Trades))
		assert.Len(t, decoded.Snapshots, len(result.Snapshots))

		// Regenerating from the decoded result matches the original.
		redone, err := Generate(decoded, analysis.Analyze(decoded), Config{Format: FormatMarkdown})
		require.NoError(t, err)
		direct, err := Generate(result, res, Config{Format: FormatMarkdown})
		require.NoError(t, err)
		assert.Equal(t, direct, redone)
	})

	t.Run("bare result", func(t *testing.T) {
		raw, err := json.Marshal(result)
		require.NoError(t, err)
		decoded, err := DecodeResult(raw)
		require.NoError(t, err)
		assert.True(t, decoded.InitialCapital.Equal(result.InitialCapital))
	})

	t.Run("document without summary section", func(t *testing.T) {
		out, err := Generate(result, res, Config{Format: FormatJSON, Sections: []Section{SectionTrades}})
		require.NoError(t, err)
		_, err = DecodeResult(out)
		assert.ErrorIs(t, err, ErrNoResult, "top-level trades must not hydrate a zeroed result")
	})

	t.Run("malformed input", func(t *testing.T) {
		_, err := DecodeResult([]byte("not json"))
		assert.Error(t, err)
	})
}

func TestBuildChartsMirrorsInputs(t *testing.T) {
	result, res := fixtureResult()
	charts := BuildCharts(result, res)

	require.Len(t, charts.EquityCurve.Points, len(result.Snapshots))
	for i, p := range charts.EquityCurve.Points {
		assert.True(t, p.Y.Equal(result.Snapshots[i].Equity))
	}
	require.Len(t, charts.DrawdownCurve.Points, len(res.Drawdown.Curve))
	require.Len(t, charts.MonthlyHeatmap, len(res.Monthly))
}
