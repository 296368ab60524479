package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNoTiers          = errors.New("tiered commission needs at least one tier")
	ErrNoUnboundedTier  = errors.New("tiered commission must end with an unbounded tier")
	ErrTiersOutOfOrder  = errors.New("tiered commission bounds must be strictly increasing")
	ErrBoundAfterLast   = errors.New("tiered commission has a bounded tier after the unbounded one")
	ErrNegativeTierRate = errors.New("tiered commission rate must not be negative")
)

// CommissionModel computes the fee for a single trade. The fee is always
// non-negative and is charged on top of the notional for buys and out of
// the proceeds for sells.
type CommissionModel interface {
	Fee(notional, quantity decimal.Decimal) decimal.Decimal
}

type NoCommission struct{}

func (NoCommission) Fee(_, _ decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// FixedCommission charges a flat amount per trade.
type FixedCommission struct {
	Amount decimal.Decimal
}

func NewFixedCommission(amount decimal.Decimal) FixedCommission {
	return FixedCommission{Amount: amount}
}

func (c FixedCommission) Fee(_, _ decimal.Decimal) decimal.Decimal {
	return c.Amount
}

// PerShareCommission charges per share with a per-order minimum and
// maximum, the shape of most broker fixed-pricing schedules.
type PerShareCommission struct {
	PerShare decimal.Decimal
	Minimum  decimal.Decimal
	Maximum  decimal.Decimal
}

func NewPerShareCommission(perShare, minimum, maximum decimal.Decimal) PerShareCommission {
	return PerShareCommission{PerShare: perShare, Minimum: minimum, Maximum: maximum}
}

func (c PerShareCommission) Fee(_, quantity decimal.Decimal) decimal.Decimal {
	fee := c.PerShare.Mul(quantity)
	if fee.LessThan(c.Minimum) {
		fee = c.Minimum
	}
	if c.Maximum.IsPositive() && fee.GreaterThan(c.Maximum) {
		fee = c.Maximum
	}
	return fee
}

// PercentageCommission charges a percentage of the trade notional.
type PercentageCommission struct {
	Percent decimal.Decimal
}

func NewPercentageCommission(percent decimal.Decimal) PercentageCommission {
	return PercentageCommission{Percent: percent}
}

func (c PercentageCommission) Fee(notional, _ decimal.Decimal) decimal.Decimal {
	return notional.Mul(c.Percent).Div(oneHundred)
}

// CommissionTier is one band of a tiered schedule. A nil UpperBound marks
// the terminal, unbounded band.
type CommissionTier struct {
	UpperBound *decimal.Decimal
	Percent    decimal.Decimal
}

// TieredCommission selects the first tier whose upper bound is at or
// above the notional and charges that tier's percentage. A notional
// landing exactly on a bound uses the tier it bounds, so boundary trades
// price reproducibly on the cheaper band.
type TieredCommission struct {
	tiers []CommissionTier
}

func NewTieredCommission(tiers []CommissionTier) (TieredCommission, error) {
	if len(tiers) == 0 {
		return TieredCommission{}, ErrNoTiers
	}
	var prev *decimal.Decimal
	for i, tier := range tiers {
		if tier.Percent.IsNegative() {
			return TieredCommission{}, fmt.Errorf("tier %d: %w", i, ErrNegativeTierRate)
		}
		if tier.UpperBound == nil {
			if i != len(tiers)-1 {
				return TieredCommission{}, ErrBoundAfterLast
			}
			continue
		}
		if prev != nil && !tier.UpperBound.GreaterThan(*prev) {
			return TieredCommission{}, fmt.Errorf("tier %d: %w", i, ErrTiersOutOfOrder)
		}
		prev = tier.UpperBound
	}
	if tiers[len(tiers)-1].UpperBound != nil {
		return TieredCommission{}, ErrNoUnboundedTier
	}
	return TieredCommission{tiers: append([]CommissionTier(nil), tiers...)}, nil
}

func (c TieredCommission) Fee(notional, _ decimal.Decimal) decimal.Decimal {
	for _, tier := range c.tiers {
		if tier.UpperBound == nil || notional.LessThanOrEqual(*tier.UpperBound) {
			return notional.Mul(tier.Percent).Div(oneHundred)
		}
	}
	return decimal.Zero
}
