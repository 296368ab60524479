package engine

import (
	"time"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

type position struct {
	symbol    string
	quantity  decimal.Decimal
	avgCost   decimal.Decimal
	lastClose decimal.Decimal
	entryTime time.Time
}

// portfolio tracks cash and open positions through the simulation.
// Positions carry a weighted-average cost basis; entryTime is the day the
// position was opened from flat and survives scale-ins, feeding the
// holding-period statistics downstream.
type portfolio struct {
	cash      decimal.Decimal
	positions map[string]*position
}

func newPortfolio(initialCash decimal.Decimal) *portfolio {
	return &portfolio{
		cash:      initialCash,
		positions: make(map[string]*position),
	}
}

func (p *portfolio) held(symbol string) decimal.Decimal {
	if pos, ok := p.positions[symbol]; ok {
		return pos.quantity
	}
	return decimal.Zero
}

// buy debits notional+fee and folds the fill into the weighted-average
// cost basis. Cash-sufficiency is the engine's decision (margin flag);
// the portfolio just applies what it is told.
func (p *portfolio) buy(symbol string, quantity, fillPrice, fee decimal.Decimal, at time.Time) {
	p.cash = p.cash.Sub(fillPrice.Mul(quantity)).Sub(fee)

	pos := p.positions[symbol]
	if pos == nil || pos.quantity.IsZero() {
		p.positions[symbol] = &position{
			symbol:    symbol,
			quantity:  quantity,
			avgCost:   fillPrice,
			lastClose: fillPrice,
			entryTime: at,
		}
		return
	}
	pos.avgCost = weightedAvg(pos.avgCost, pos.quantity, fillPrice, quantity)
	pos.quantity = pos.quantity.Add(quantity)
}

// sell credits notional-fee and returns the realized profit or loss
// against the average cost, net of the closing fee. The caller has
// already verified the position covers the quantity.
func (p *portfolio) sell(symbol string, quantity, fillPrice, fee decimal.Decimal) (pnl decimal.Decimal, entry time.Time) {
	pos := p.positions[symbol]
	p.cash = p.cash.Add(fillPrice.Mul(quantity)).Sub(fee)

	pnl = fillPrice.Sub(pos.avgCost).Mul(quantity).Sub(fee)
	entry = pos.entryTime

	pos.quantity = pos.quantity.Sub(quantity)
	if pos.quantity.IsZero() {
		delete(p.positions, symbol)
	}
	return pnl, entry
}

func (p *portfolio) markToMarket(closes map[string]decimal.Decimal) {
	for sym, pos := range p.positions {
		if c, ok := closes[sym]; ok {
			pos.lastClose = c
		}
	}
}

func (p *portfolio) snapshot(at time.Time) types.PortfolioSnapshot {
	snap := types.PortfolioSnapshot{
		Timestamp: at,
		Cash:      p.cash,
	}
	value := decimal.Zero
	if len(p.positions) > 0 {
		snap.Positions = make(map[string]types.PositionSnapshot, len(p.positions))
	}
	for sym, pos := range p.positions {
		posValue := pos.quantity.Mul(pos.lastClose)
		value = value.Add(posValue)
		snap.Positions[sym] = types.PositionSnapshot{
			Symbol:    sym,
			Quantity:  pos.quantity,
			AvgCost:   pos.avgCost,
			LastPrice: pos.lastClose,
			Value:     posValue,
		}
	}
	snap.PositionValue = value
	snap.Equity = p.cash.Add(value)
	return snap
}

func weightedAvg(existingAvg, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvg.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
