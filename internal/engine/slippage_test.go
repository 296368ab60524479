package engine

import (
	"testing"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

func testBar(close string, volume int64) types.Bar {
	return types.Bar{
		Symbol: "AAPL",
		Close:  decimal.RequireFromString(close),
		Volume: volume,
	}
}

func TestSlippageModels(t *testing.T) {
	tests := []struct {
		name     string
		model    SlippageModel
		price    string
		quantity string
		side     types.Side
		bar      types.Bar
		want     string
	}{
		{
			name:     "none is identity",
			model:    NoSlippage{},
			price:    "100",
			quantity: "50",
			side:     types.SideBuy,
			bar:      testBar("100", 1000),
			want:     "100",
		},
		{
			name:     "fixed moves buys up",
			model:    NewFixedSlippage(decimal.RequireFromString("0.05")),
			price:    "100",
			quantity: "50",
			side:     types.SideBuy,
			bar:      testBar("100", 1000),
			want:     "100.05",
		},
		{
			name:     "fixed moves sells down",
			model:    NewFixedSlippage(decimal.RequireFromString("0.05")),
			price:    "100",
			quantity: "50",
			side:     types.SideSell,
			bar:      testBar("100", 1000),
			want:     "99.95",
		},
		{
			name:     "percentage buy",
			model:    NewPercentageSlippage(decimal.RequireFromString("0.1")),
			price:    "131",
			quantity: "100",
			side:     types.SideBuy,
			bar:      testBar("131", 1000),
			want:     "131.131",
		},
		{
			name:     "percentage sell",
			model:    NewPercentageSlippage(decimal.RequireFromString("0.1")),
			price:    "135",
			quantity: "100",
			side:     types.SideSell,
			bar:      testBar("135", 1000),
			want:     "134.865",
		},
		{
			name:     "volume impact scales with participation",
			model:    NewVolumeSlippage(decimal.RequireFromString("0.1"), decimal.RequireFromString("0.5")),
			price:    "100",
			quantity: "100",
			side:     types.SideBuy,
			bar:      testBar("100", 10000),
			// impact = 0.1 + 0.5*(100/10000)*100 = 0.6%
			want: "100.6",
		},
		{
			name:     "volume impact on zero-volume bar uses base only",
			model:    NewVolumeSlippage(decimal.RequireFromString("0.1"), decimal.RequireFromString("0.5")),
			price:    "100",
			quantity: "100",
			side:     types.SideBuy,
			bar:      testBar("100", 0),
			want:     "100.1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.model.Apply(
				decimal.RequireFromString(tc.price),
				decimal.RequireFromString(tc.quantity),
				tc.side,
				tc.bar,
			)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Errorf("Apply() = %s, want %s", got, tc.want)
			}
		})
	}
}
