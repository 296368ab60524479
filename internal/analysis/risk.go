package analysis

import (
	"math"
	"sort"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

// analyzeRisk computes the ratio-family metrics. Every formula has an
// explicit fallback for its degenerate inputs (no returns, zero
// variance, zero drawdown) so nothing here can produce NaN or Inf.
func analyzeRisk(result *types.BacktestResult, returns []float64, dd DrawdownAnalysis) RiskMetrics {
	risk := RiskMetrics{
		SharpeRatio:      decimal.Zero,
		SortinoRatio:     decimal.Zero,
		CalmarRatio:      decimal.Zero,
		AnnualizedReturn: decimal.Zero,
		VaR95:            decimal.Zero,
		CVaR95:           decimal.Zero,
		UlcerIndex:       decimal.Zero,
		RecoveryFactor:   decimal.Zero,
	}

	if len(returns) >= 2 {
		mean := mean(returns)
		if sd := stdev(returns); sd > 0 {
			risk.SharpeRatio = decimal.NewFromFloat(mean / sd * math.Sqrt(tradingDaysPerYear))
		}
		var downside []float64
		for _, r := range returns {
			if r < 0 {
				downside = append(downside, r)
			}
		}
		if len(downside) > 0 {
			if ds := stdev(downside); ds > 0 {
				risk.SortinoRatio = decimal.NewFromFloat(mean / ds * math.Sqrt(tradingDaysPerYear))
			}
		}
		risk.VaR95 = decimal.NewFromFloat(percentile(returns, 5))
		risk.CVaR95 = decimal.NewFromFloat(cvarBelow(returns, risk.VaR95.InexactFloat64()))
	}

	risk.AnnualizedReturn = annualizedReturn(result, len(returns))
	risk.MaxDrawdown = dd.MaxDrawdown
	risk.MaxDrawdownDuration = dd.Duration

	if dd.MaxDrawdown.IsNegative() {
		absDD := dd.MaxDrawdown.Abs()
		risk.CalmarRatio = risk.AnnualizedReturn.Div(absDD)
		risk.RecoveryFactor = result.TotalReturn.Div(absDD)
	}

	if len(dd.Curve) > 0 {
		var sq float64
		for _, d := range dd.Curve {
			f := d.InexactFloat64()
			sq += f * f
		}
		risk.UlcerIndex = decimal.NewFromFloat(math.Sqrt(sq / float64(len(dd.Curve))))
	}

	return risk
}

// annualizedReturn is the CAGR over the run measured in trading days.
func annualizedReturn(result *types.BacktestResult, tradingDays int) decimal.Decimal {
	if tradingDays == 0 || !result.InitialCapital.IsPositive() || !result.FinalValue.IsPositive() {
		return decimal.Zero
	}
	growth := result.FinalValue.Div(result.InitialCapital).InexactFloat64()
	years := float64(tradingDays) / tradingDaysPerYear
	cagr := math.Pow(growth, 1/years) - 1
	return decimal.NewFromFloat(cagr * 100)
}

// percentile returns the p-th percentile of xs by linear interpolation
// between the two nearest order statistics.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// cvarBelow averages every return at or below the cutoff.
func cvarBelow(xs []float64, cutoff float64) float64 {
	var sum float64
	var n int
	for _, x := range xs {
		if x <= cutoff {
			sum += x
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stdev is the population standard deviation.
func stdev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sq float64
	for _, x := range xs {
		d := x - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)))
}
