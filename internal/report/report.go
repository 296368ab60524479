// Package report renders a finished backtest and its analysis into one
// of several document encodings. It holds no numerical logic: every
// figure shown is read verbatim from the result or the analysis, with
// JSON as the canonical encoding the others mirror.
package report

import (
	"errors"
	"fmt"
	"sort"

	"quantbt/internal/analysis"
	"quantbt/types"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownFormat  = errors.New("unknown report format")
	ErrUnknownSection = errors.New("unknown report section")
	ErrNilInput       = errors.New("report needs both a result and an analysis")
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
)

type Section string

const (
	SectionSummary     Section = "SUMMARY"
	SectionTrades      Section = "TRADES"
	SectionPerformance Section = "PERFORMANCE"
	SectionRisk        Section = "RISK"
	SectionCharts      Section = "CHARTS"
	SectionPositions   Section = "POSITIONS"
)

// AllSections lists every section in its rendering order.
var AllSections = []Section{
	SectionSummary,
	SectionPerformance,
	SectionRisk,
	SectionTrades,
	SectionPositions,
	SectionCharts,
}

// Config selects the output encoding and which sections to include.
// An empty section list means all of them.
type Config struct {
	Format   Format
	Sections []Section
	Title    string
}

type document struct {
	Title    string
	Sections []Section
	Result   *types.BacktestResult
	Analysis *analysis.Result
	Charts   *ChartData
}

func (d *document) has(s Section) bool {
	for _, sec := range d.Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// Generate renders the report. Unknown formats or sections fail fast;
// they are caller configuration bugs, not data conditions.
func Generate(result *types.BacktestResult, res *analysis.Result, cfg Config) ([]byte, error) {
	if result == nil || res == nil {
		return nil, ErrNilInput
	}
	doc, err := newDocument(result, res, cfg)
	if err != nil {
		return nil, err
	}
	switch cfg.Format {
	case FormatJSON:
		return renderJSON(doc)
	case FormatMarkdown:
		return renderMarkdown(doc)
	case FormatHTML:
		return renderHTML(doc)
	case FormatPDF:
		return renderPDF(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}
}

func newDocument(result *types.BacktestResult, res *analysis.Result, cfg Config) (*document, error) {
	sections := cfg.Sections
	if len(sections) == 0 {
		sections = AllSections
	}
	for _, s := range sections {
		if !validSection(s) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSection, s)
		}
	}
	title := cfg.Title
	if title == "" {
		title = "Backtest Report"
	}
	doc := &document{
		Title:    title,
		Sections: ordered(sections),
		Result:   result,
		Analysis: res,
	}
	if doc.has(SectionCharts) {
		doc.Charts = BuildCharts(result, res)
	}
	return doc, nil
}

func validSection(s Section) bool {
	for _, known := range AllSections {
		if s == known {
			return true
		}
	}
	return false
}

// ordered normalizes the requested set into canonical rendering order so
// identical configurations produce identical documents.
func ordered(requested []Section) []Section {
	var out []Section
	for _, s := range AllSections {
		for _, r := range requested {
			if s == r {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// fmtDecimal renders a decimal to two places for display encodings.
func fmtDecimal(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// fmtProfitFactor resolves the no-losses sentinel for display.
func fmtProfitFactor(pf decimal.Decimal) string {
	if pf.Equal(types.ProfitFactorNoLosses) {
		return "inf"
	}
	return pf.StringFixed(2)
}

// sortedKeys keeps map-backed tables deterministic across runs.
func sortedKeys(m map[string]types.PositionSnapshot) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
