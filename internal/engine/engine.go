package engine

import (
	"fmt"
	"sort"
	"time"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

// Run replays signals against historical bars and returns the completed
// result. It is a deterministic single forward pass: bar dates are
// processed in ascending order, signals due on a date execute in caller
// order at that bar's close, and one snapshot is emitted per distinct bar
// date.
//
// Fatal errors (invalid config, a signal for a symbol with no price
// series at all, an unsorted or duplicated series) abort the run.
// Data gaps and unaffordable trades do not: they are recorded on the
// result as Rejections and the simulation continues.
func Run(priceData map[string][]types.Bar, signals []types.Signal, cfg *Config) (*types.BacktestResult, error) {
	if cfg == nil {
		return nil, ErrNonPositiveCapital
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateSeries(priceData); err != nil {
		return nil, err
	}
	for _, sig := range signals {
		if _, ok := priceData[sig.Symbol]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, sig.Symbol)
		}
	}

	bt := &backtester{
		cfg:        cfg,
		slippage:   cfg.slippage(),
		commission: cfg.commission(),
		portfolio:  newPortfolio(cfg.InitialCapital),
		bars:       indexBars(priceData),
		dates:      unionDates(priceData),
		pending:    groupSignals(signals),
		result: &types.BacktestResult{
			InitialCapital: cfg.InitialCapital,
			TotalFees:      decimal.Zero,
		},
	}
	bt.run()
	return bt.result, nil
}

type backtester struct {
	cfg        *Config
	slippage   SlippageModel
	commission CommissionModel
	portfolio  *portfolio

	bars    map[string]map[time.Time]types.Bar
	dates   []time.Time
	pending map[time.Time][]types.Signal
	result  *types.BacktestResult
}

func (b *backtester) run() {
	total := len(b.dates)
	for i, day := range b.dates {
		for _, sig := range b.pending[day] {
			b.process(day, sig)
		}
		delete(b.pending, day)

		closes := make(map[string]decimal.Decimal)
		for sym, series := range b.bars {
			if bar, ok := series[day]; ok {
				closes[sym] = bar.Close
			}
		}
		b.portfolio.markToMarket(closes)
		b.result.Snapshots = append(b.result.Snapshots, b.portfolio.snapshot(day))

		if b.cfg.Progress != nil {
			b.cfg.Progress(i+1, total)
		}
	}

	// Signals dated on days with no bars anywhere never execute; they
	// surface as rejections so callers can audit them.
	b.rejectLeftovers()

	b.finish()
}

func (b *backtester) process(day time.Time, sig types.Signal) {
	if !sig.Quantity.IsPositive() {
		b.reject(sig, types.ReasonNonPositiveQuantity, "quantity must be positive")
		return
	}
	if !b.cfg.AllowFractional && !sig.Quantity.Equal(sig.Quantity.Truncate(0)) {
		b.reject(sig, types.ReasonFractionalNotAllowed, "fractional quantity with fractional trading disabled")
		return
	}
	bar, ok := b.bars[sig.Symbol][day]
	if !ok {
		b.reject(sig, types.ReasonNoBarOnDate, fmt.Sprintf("no %s bar on %s", sig.Symbol, day.Format("2006-01-02")))
		return
	}

	fillPrice := b.slippage.Apply(bar.Close, sig.Quantity, sig.Side, bar)
	notional := fillPrice.Mul(sig.Quantity)
	fee := b.commission.Fee(notional, sig.Quantity)

	trade := types.Trade{
		Symbol:         sig.Symbol,
		Side:           sig.Side,
		Quantity:       sig.Quantity,
		RequestedPrice: bar.Close,
		FillPrice:      fillPrice,
		Notional:       notional,
		Commission:     fee,
		Reason:         sig.Reason,
		Timestamp:      day,
	}

	switch sig.Side {
	case types.SideBuy:
		required := notional.Add(fee)
		if required.GreaterThan(b.portfolio.cash) && !b.cfg.MarginEnabled {
			b.reject(sig, types.ReasonInsufficientCash,
				fmt.Sprintf("need %s, have %s", required.StringFixed(2), b.portfolio.cash.StringFixed(2)))
			return
		}
		b.portfolio.buy(sig.Symbol, sig.Quantity, fillPrice, fee, day)

	case types.SideSell:
		// Short positions are not modeled; a sell may only reduce or
		// close an existing long.
		if sig.Quantity.GreaterThan(b.portfolio.held(sig.Symbol)) {
			b.reject(sig, types.ReasonInsufficientPosition,
				fmt.Sprintf("selling %s with %s held", sig.Quantity, b.portfolio.held(sig.Symbol)))
			return
		}
		pnl, entry := b.portfolio.sell(sig.Symbol, sig.Quantity, fillPrice, fee)
		trade.RealizedPnL = &pnl
		trade.EntryTime = entry

	default:
		b.reject(sig, types.ReasonUnknownSide, fmt.Sprintf("unknown side %q", sig.Side))
		return
	}

	b.result.TotalFees = b.result.TotalFees.Add(fee)
	b.result.Trades = append(b.result.Trades, trade)
}

func (b *backtester) reject(sig types.Signal, reason types.RejectReason, detail string) {
	b.result.Rejections = append(b.result.Rejections, types.Rejection{
		Symbol:    sig.Symbol,
		Side:      sig.Side,
		Quantity:  sig.Quantity,
		Reason:    reason,
		Detail:    detail,
		Timestamp: sig.Timestamp,
	})
}

func (b *backtester) rejectLeftovers() {
	days := make([]time.Time, 0, len(b.pending))
	for day := range b.pending {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	for _, day := range days {
		for _, sig := range b.pending[day] {
			b.reject(sig, types.ReasonNoBarOnDate,
				fmt.Sprintf("no bars on %s for any symbol", day.Format("2006-01-02")))
		}
	}
	// Leftover days interleave with the run's own rejections; the
	// stable sort restores date order while keeping caller order
	// within a day.
	sort.SliceStable(b.result.Rejections, func(i, j int) bool {
		return b.result.Rejections[i].Timestamp.Before(b.result.Rejections[j].Timestamp)
	})
}

func (b *backtester) finish() {
	r := b.result
	if len(r.Snapshots) == 0 {
		r.FinalValue = r.InitialCapital
		r.TotalReturn = decimal.Zero
		summarize(r)
		return
	}
	r.FinalValue = r.Snapshots[len(r.Snapshots)-1].Equity
	r.TotalReturn = r.FinalValue.Sub(r.InitialCapital).
		Div(r.InitialCapital).
		Mul(oneHundred)
	summarize(r)
}

func validateSeries(priceData map[string][]types.Bar) error {
	for sym, series := range priceData {
		for i := 1; i < len(series); i++ {
			if !series[i].Timestamp.After(series[i-1].Timestamp) {
				return fmt.Errorf("%w: %s at index %d", ErrUnsortedSeries, sym, i)
			}
		}
	}
	return nil
}

func indexBars(priceData map[string][]types.Bar) map[string]map[time.Time]types.Bar {
	index := make(map[string]map[time.Time]types.Bar, len(priceData))
	for sym, series := range priceData {
		byDay := make(map[time.Time]types.Bar, len(series))
		for _, bar := range series {
			byDay[types.Day(bar.Timestamp)] = bar
		}
		index[sym] = byDay
	}
	return index
}

func unionDates(priceData map[string][]types.Bar) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, series := range priceData {
		for _, bar := range series {
			seen[types.Day(bar.Timestamp)] = struct{}{}
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for day := range seen {
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

func groupSignals(signals []types.Signal) map[time.Time][]types.Signal {
	grouped := make(map[time.Time][]types.Signal)
	for _, sig := range signals {
		day := types.Day(sig.Timestamp)
		grouped[day] = append(grouped[day], sig)
	}
	return grouped
}
