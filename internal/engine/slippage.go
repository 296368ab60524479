package engine

import (
	"quantbt/types"

	"github.com/shopspring/decimal"
)

// SlippageModel adjusts an intended fill price for execution friction.
// Implementations are stateless pure functions: BUY fills move up, SELL
// fills move down, so slippage always works against the trader.
type SlippageModel interface {
	Apply(price, quantity decimal.Decimal, side types.Side, bar types.Bar) decimal.Decimal
}

type NoSlippage struct{}

func (NoSlippage) Apply(price, _ decimal.Decimal, _ types.Side, _ types.Bar) decimal.Decimal {
	return price
}

// FixedSlippage shifts the fill by an absolute amount per share.
type FixedSlippage struct {
	Amount decimal.Decimal
}

func NewFixedSlippage(amount decimal.Decimal) FixedSlippage {
	return FixedSlippage{Amount: amount}
}

func (s FixedSlippage) Apply(price, _ decimal.Decimal, side types.Side, _ types.Bar) decimal.Decimal {
	if side == types.SideBuy {
		return price.Add(s.Amount)
	}
	return price.Sub(s.Amount)
}

// PercentageSlippage shifts the fill by a percentage of the intended price.
type PercentageSlippage struct {
	Percent decimal.Decimal
}

func NewPercentageSlippage(percent decimal.Decimal) PercentageSlippage {
	return PercentageSlippage{Percent: percent}
}

func (s PercentageSlippage) Apply(price, _ decimal.Decimal, side types.Side, _ types.Bar) decimal.Decimal {
	return applyImpactPct(price, s.Percent, side)
}

// VolumeSlippage scales impact with order size relative to the bar's
// traded volume: impact% = base + factor * (quantity/volume) * 100.
// A zero-volume bar contributes no volume impact, only the base; halted
// or unlisted days are degenerate liquidity, not an error.
type VolumeSlippage struct {
	BaseImpact   decimal.Decimal
	VolumeFactor decimal.Decimal
}

func NewVolumeSlippage(baseImpact, volumeFactor decimal.Decimal) VolumeSlippage {
	return VolumeSlippage{BaseImpact: baseImpact, VolumeFactor: volumeFactor}
}

func (s VolumeSlippage) Apply(price, quantity decimal.Decimal, side types.Side, bar types.Bar) decimal.Decimal {
	impact := s.BaseImpact
	if bar.Volume > 0 {
		participation := quantity.Div(decimal.NewFromInt(bar.Volume))
		impact = impact.Add(s.VolumeFactor.Mul(participation).Mul(oneHundred))
	}
	return applyImpactPct(price, impact, side)
}

var oneHundred = decimal.NewFromInt(100)

func applyImpactPct(price, pct decimal.Decimal, side types.Side) decimal.Decimal {
	adj := price.Mul(pct).Div(oneHundred)
	if side == types.SideBuy {
		return price.Add(adj)
	}
	return price.Sub(adj)
}
