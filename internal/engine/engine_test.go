package engine

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"quantbt/types"
)

// barSeries builds consecutive daily bars from start, one per close.
func barSeries(symbol, start string, closes ...string) []types.Bar {
	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		px := dec(c)
		bars[i] = types.NewBar(symbol, day(start).AddDate(0, 0, i), px, px, px, px, 1_000_000)
	}
	return bars
}

func mustConfig(t *testing.T, capital string) *Config {
	t.Helper()
	cfg, err := NewConfig(dec(capital))
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func TestRunWorkedScenario(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "131", "133", "135"),
	}
	signals := []types.Signal{
		types.NewSignal("AAPL", types.SideBuy, dec("100"), "entry", day("2024-01-02")),
		types.NewSignal("AAPL", types.SideSell, dec("100"), "exit", day("2024-01-04")),
	}
	cfg := mustConfig(t, "100000")
	cfg.Slippage = NewPercentageSlippage(dec("0.1"))
	cfg.Commission = NewPercentageCommission(dec("0.1"))

	result, err := Run(priceData, signals, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(result.Trades) != 2 {
		t.Fatalf("trades = %d, want 2", len(result.Trades))
	}
	buy, sell := result.Trades[0], result.Trades[1]

	if !buy.FillPrice.Equal(dec("131.131")) {
		t.Errorf("buy fill = %s, want 131.131", buy.FillPrice)
	}
	if !buy.Notional.Equal(dec("13113.1")) {
		t.Errorf("buy notional = %s, want 13113.1", buy.Notional)
	}
	if !buy.Commission.Equal(dec("13.1131")) {
		t.Errorf("buy fee = %s, want 13.1131", buy.Commission)
	}
	if buy.Closed() {
		t.Error("opening buy must not carry realized pnl")
	}
	if !result.Snapshots[0].Cash.Equal(dec("86873.7869")) {
		t.Errorf("cash after buy = %s, want 86873.7869", result.Snapshots[0].Cash)
	}

	if !sell.FillPrice.Equal(dec("134.865")) {
		t.Errorf("sell fill = %s, want 134.865", sell.FillPrice)
	}
	// (134.865 - 131.131) * 100 - 13.4865
	if !sell.Closed() || !sell.RealizedPnL.Equal(dec("359.9135")) {
		t.Errorf("sell pnl = %v, want 359.9135", sell.RealizedPnL)
	}
	if !sell.EntryTime.Equal(day("2024-01-02")) {
		t.Errorf("sell entry time = %s, want 2024-01-02", sell.EntryTime)
	}

	if !result.FinalValue.Equal(dec("100346.8004")) {
		t.Errorf("final value = %s, want 100346.8004", result.FinalValue)
	}
	if !result.TotalReturn.Equal(dec("0.3468004")) {
		t.Errorf("total return = %s, want 0.3468004", result.TotalReturn)
	}
	if !result.TotalFees.Equal(dec("26.5996")) {
		t.Errorf("total fees = %s, want 26.5996", result.TotalFees)
	}
	if len(result.FinalPositions()) != 0 {
		t.Errorf("expected flat book, got %v", result.FinalPositions())
	}
}

func TestRunSnapshotPerBarDate(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "100", "101", "102"),
		"MSFT": barSeries("MSFT", "2024-01-03", "200", "201", "202"),
	}

	result, err := Run(priceData, nil, mustConfig(t, "1000"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Union of dates: Jan 2,3,4 from AAPL plus Jan 5 from MSFT.
	if len(result.Snapshots) != 4 {
		t.Fatalf("snapshots = %d, want 4", len(result.Snapshots))
	}
	for i := 1; i < len(result.Snapshots); i++ {
		if !result.Snapshots[i].Timestamp.After(result.Snapshots[i-1].Timestamp) {
			t.Fatal("snapshots out of order")
		}
	}
	for _, snap := range result.Snapshots {
		if !snap.Equity.Equal(dec("1000")) {
			t.Errorf("idle equity = %s, want 1000", snap.Equity)
		}
	}
}

func TestRunCarriesForwardMissingClose(t *testing.T) {
	aapl := barSeries("AAPL", "2024-01-02", "100")
	// AAPL is halted on Jan 3; MSFT keeps the calendar going.
	aapl = append(aapl, types.NewBar("AAPL", day("2024-01-04"), dec("110"), dec("110"), dec("110"), dec("110"), 1000))
	priceData := map[string][]types.Bar{
		"AAPL": aapl,
		"MSFT": barSeries("MSFT", "2024-01-02", "50", "50", "50"),
	}
	signals := []types.Signal{
		types.NewSignal("AAPL", types.SideBuy, dec("10"), "", day("2024-01-02")),
	}

	result, err := Run(priceData, signals, mustConfig(t, "10000"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Snapshots) != 3 {
		t.Fatalf("snapshots = %d, want 3", len(result.Snapshots))
	}
	// Jan 3 marks AAPL at the carried-forward Jan 2 close.
	if !result.Snapshots[1].Equity.Equal(dec("10000")) {
		t.Errorf("gap-day equity = %s, want 10000", result.Snapshots[1].Equity)
	}
	if !result.Snapshots[2].Equity.Equal(dec("10100")) {
		t.Errorf("final equity = %s, want 10100", result.Snapshots[2].Equity)
	}
}

func TestRunRejections(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "100", "100"),
	}

	tests := []struct {
		name   string
		cfg    func(*Config)
		signal types.Signal
		reason types.RejectReason
	}{
		{
			name:   "sell with no position",
			signal: types.NewSignal("AAPL", types.SideSell, dec("10"), "", day("2024-01-02")),
			reason: types.ReasonInsufficientPosition,
		},
		{
			name:   "buy beyond cash",
			signal: types.NewSignal("AAPL", types.SideBuy, dec("1000"), "", day("2024-01-02")),
			reason: types.ReasonInsufficientCash,
		},
		{
			name:   "signal on a bar gap",
			signal: types.NewSignal("AAPL", types.SideBuy, dec("1"), "", day("2024-01-06")),
			reason: types.ReasonNoBarOnDate,
		},
		{
			name:   "non-positive quantity",
			signal: types.NewSignal("AAPL", types.SideBuy, dec("0"), "", day("2024-01-02")),
			reason: types.ReasonNonPositiveQuantity,
		},
		{
			name:   "fractional quantity disabled",
			cfg:    func(c *Config) { c.AllowFractional = false },
			signal: types.NewSignal("AAPL", types.SideBuy, dec("1.5"), "", day("2024-01-02")),
			reason: types.ReasonFractionalNotAllowed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := mustConfig(t, "1000")
			if tc.cfg != nil {
				tc.cfg(cfg)
			}
			result, err := Run(priceData, []types.Signal{tc.signal}, cfg)
			if err != nil {
				t.Fatalf("rejections must not be fatal: %v", err)
			}
			if len(result.Trades) != 0 {
				t.Fatalf("trades = %d, want 0", len(result.Trades))
			}
			if len(result.Rejections) != 1 {
				t.Fatalf("rejections = %d, want 1", len(result.Rejections))
			}
			if got := result.Rejections[0].Reason; got != tc.reason {
				t.Errorf("reason = %s, want %s", got, tc.reason)
			}
			// A rejection never touches cash.
			if !result.FinalValue.Equal(dec("1000")) {
				t.Errorf("final value = %s, want 1000", result.FinalValue)
			}
		})
	}
}

func TestRunRejectionsChronological(t *testing.T) {
	aapl := barSeries("AAPL", "2024-01-02", "100")
	aapl = append(aapl, types.NewBar("AAPL", day("2024-01-08"), dec("100"), dec("100"), dec("100"), dec("100"), 1000))
	priceData := map[string][]types.Bar{"AAPL": aapl}

	// Jan 4 has no bars for any symbol, so its rejection is only known
	// once the run ends; it must still land between the Jan 2 and Jan 8
	// rejections.
	signals := []types.Signal{
		types.NewSignal("AAPL", types.SideSell, dec("10"), "", day("2024-01-02")),
		types.NewSignal("AAPL", types.SideBuy, dec("1"), "", day("2024-01-04")),
		types.NewSignal("AAPL", types.SideBuy, dec("1000"), "", day("2024-01-08")),
	}

	result, err := Run(priceData, signals, mustConfig(t, "1000"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Rejections) != 3 {
		t.Fatalf("rejections = %d, want 3", len(result.Rejections))
	}
	for i := 1; i < len(result.Rejections); i++ {
		if result.Rejections[i].Timestamp.Before(result.Rejections[i-1].Timestamp) {
			t.Fatalf("rejections out of date order: %v", result.Rejections)
		}
	}
	if got := result.Rejections[1].Reason; got != types.ReasonNoBarOnDate {
		t.Errorf("middle rejection reason = %s, want NO_BAR_ON_DATE", got)
	}
}

func TestRunFatalErrors(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "100"),
	}

	t.Run("unknown symbol", func(t *testing.T) {
		signals := []types.Signal{
			types.NewSignal("ZZZZ", types.SideBuy, dec("1"), "", day("2024-01-02")),
		}
		_, err := Run(priceData, signals, mustConfig(t, "1000"))
		if !errors.Is(err, ErrUnknownSymbol) {
			t.Errorf("err = %v, want ErrUnknownSymbol", err)
		}
	})

	t.Run("non-positive capital", func(t *testing.T) {
		if _, err := NewConfig(dec("0")); !errors.Is(err, ErrNonPositiveCapital) {
			t.Errorf("err = %v, want ErrNonPositiveCapital", err)
		}
		_, err := Run(priceData, nil, &Config{InitialCapital: dec("-5")})
		if !errors.Is(err, ErrNonPositiveCapital) {
			t.Errorf("err = %v, want ErrNonPositiveCapital", err)
		}
	})

	t.Run("duplicate bar dates", func(t *testing.T) {
		dup := map[string][]types.Bar{
			"AAPL": append(barSeries("AAPL", "2024-01-02", "100"), barSeries("AAPL", "2024-01-02", "101")...),
		}
		_, err := Run(dup, nil, mustConfig(t, "1000"))
		if !errors.Is(err, ErrUnsortedSeries) {
			t.Errorf("err = %v, want ErrUnsortedSeries", err)
		}
	})
}

func TestRunMarginAllowsNegativeCash(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "100"),
	}
	signals := []types.Signal{
		types.NewSignal("AAPL", types.SideBuy, dec("20"), "", day("2024-01-02")),
	}
	cfg := mustConfig(t, "1000")
	cfg.MarginEnabled = true

	result, err := Run(priceData, signals, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(result.Trades))
	}
	if !result.Snapshots[0].Cash.Equal(dec("-1000")) {
		t.Errorf("cash = %s, want -1000", result.Snapshots[0].Cash)
	}
	// Equity is unchanged: the position is worth what was paid.
	if !result.Snapshots[0].Equity.Equal(dec("1000")) {
		t.Errorf("equity = %s, want 1000", result.Snapshots[0].Equity)
	}
}

func TestRunSignalOrderPreservedWithinDay(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "100"),
	}
	// Buy then sell on the same day works only if caller order is kept.
	signals := []types.Signal{
		types.NewSignal("AAPL", types.SideBuy, dec("5"), "", day("2024-01-02")),
		types.NewSignal("AAPL", types.SideSell, dec("5"), "", day("2024-01-02")),
	}

	result, err := Run(priceData, signals, mustConfig(t, "1000"))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Trades) != 2 || len(result.Rejections) != 0 {
		t.Fatalf("trades=%d rejections=%d, want 2/0", len(result.Trades), len(result.Rejections))
	}
	if result.Trades[0].Side != types.SideBuy || result.Trades[1].Side != types.SideSell {
		t.Error("intra-day signal order not preserved")
	}
}

func TestRunDeterminism(t *testing.T) {
	priceData := map[string][]types.Bar{
		"AAPL": barSeries("AAPL", "2024-01-02", "100", "104", "98", "103", "107"),
		"MSFT": barSeries("MSFT", "2024-01-02", "250", "248", "252", "255", "251"),
	}
	signals := []types.Signal{
		types.NewSignal("AAPL", types.SideBuy, dec("4"), "", day("2024-01-02")),
		types.NewSignal("MSFT", types.SideBuy, dec("1"), "", day("2024-01-03")),
		types.NewSignal("AAPL", types.SideSell, dec("4"), "", day("2024-01-05")),
	}

	run := func() *types.BacktestResult {
		cfg := mustConfig(t, "10000")
		cfg.Slippage = NewVolumeSlippage(dec("0.05"), dec("0.3"))
		cfg.Commission = NewPerShareCommission(dec("0.01"), dec("1"), dec("5"))
		result, err := Run(priceData, signals, cfg)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		return result
	}

	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Error("identical inputs produced different results")
	}
}

func TestSummaryDegenerateCases(t *testing.T) {
	t.Run("single snapshot has zero ratios", func(t *testing.T) {
		priceData := map[string][]types.Bar{
			"AAPL": barSeries("AAPL", "2024-01-02", "100"),
		}
		result, err := Run(priceData, nil, mustConfig(t, "1000"))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if !result.SharpeRatio.IsZero() || !result.SortinoRatio.IsZero() {
			t.Errorf("sharpe=%s sortino=%s, want 0/0", result.SharpeRatio, result.SortinoRatio)
		}
	})

	t.Run("no losing trades yields profit factor sentinel", func(t *testing.T) {
		priceData := map[string][]types.Bar{
			"AAPL": barSeries("AAPL", "2024-01-02", "100", "120"),
		}
		signals := []types.Signal{
			types.NewSignal("AAPL", types.SideBuy, dec("5"), "", day("2024-01-02")),
			types.NewSignal("AAPL", types.SideSell, dec("5"), "", day("2024-01-03")),
		}
		result, err := Run(priceData, signals, mustConfig(t, "1000"))
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if result.WinningTrades != 1 || result.LosingTrades != 0 {
			t.Fatalf("win/loss = %d/%d, want 1/0", result.WinningTrades, result.LosingTrades)
		}
		if !result.ProfitFactor.Equal(types.ProfitFactorNoLosses) {
			t.Errorf("profit factor = %s, want sentinel", result.ProfitFactor)
		}
	})
}

func TestDayTruncation(t *testing.T) {
	noon := time.Date(2024, 1, 2, 12, 30, 0, 0, time.UTC)
	if got := types.Day(noon); !got.Equal(day("2024-01-02")) {
		t.Errorf("Day(%s) = %s", noon, got)
	}
}
