package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeDrawdownRecovered(t *testing.T) {
	// Peak 1200 at index 1, trough 900 at index 3, regained at index 5.
	dd := analyzeDrawdown(snapshotsOf("1000", "1200", "1100", "900", "1150", "1250"))

	assert.True(t, dd.MaxDrawdown.Equal(dec("-25")), "max drawdown = %s", dd.MaxDrawdown)
	assert.True(t, dd.PeakEquity.Equal(dec("1200")))
	assert.Equal(t, day("2024-01-03"), dd.PeakTime)
	assert.Equal(t, day("2024-01-05"), dd.TroughTime)
	assert.Equal(t, 4, dd.Duration, "peak at index 1, recovery at index 5")
	assert.True(t, dd.Recovered)
}

func TestAnalyzeDrawdownOngoing(t *testing.T) {
	dd := analyzeDrawdown(snapshotsOf("1000", "1200", "900", "950"))

	assert.True(t, dd.MaxDrawdown.Equal(dec("-25")))
	assert.False(t, dd.Recovered, "equity never regained the peak")
	assert.Equal(t, 2, dd.Duration, "open drawdown runs to the end of the series")
}

func TestAnalyzeDrawdownMonotonicEquity(t *testing.T) {
	dd := analyzeDrawdown(snapshotsOf("1000", "1100", "1200"))
	assert.True(t, dd.MaxDrawdown.IsZero())
	assert.True(t, dd.Recovered)
	assert.Equal(t, 0, dd.Duration)
	require.Len(t, dd.Curve, 3)
	for _, point := range dd.Curve {
		assert.True(t, point.IsZero())
	}
}

func TestAnalyzeDrawdownEmpty(t *testing.T) {
	dd := analyzeDrawdown(nil)
	assert.True(t, dd.MaxDrawdown.IsZero())
	assert.True(t, dd.Recovered)
	assert.Empty(t, dd.Curve)
}
