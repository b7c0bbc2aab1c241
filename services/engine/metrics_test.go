package engine

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAnnualizedReturn(t *testing.T) {
	tests := []struct {
		name        string
		totalReturn float64
		days        int
		want        float64
	}{
		{"zero duration", 0.5, 0, 0},
		{"negative duration", 0.5, -10, 0},
		{"one year identity", 0.21, 365, 0.21},
		{"two years doubles", 1.0, 730, math.Sqrt2 - 1},
		{"total loss caps", -1.5, 100, -1},
		{"flat", 0, 365, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AnnualizedReturn(tt.totalReturn, tt.days), 1e-12)
		})
	}
}

func TestSharpeRatioShortCurve(t *testing.T) {
	assert.Zero(t, SharpeRatio(nil))
	assert.Zero(t, SharpeRatio(curveOf(100)))
	assert.Zero(t, SharpeRatio(curveOf(100, 110)))
}

func TestSharpeRatioZeroVariance(t *testing.T) {
	// Flat and constant-growth curves both have zero return dispersion.
	assert.Zero(t, SharpeRatio(curveOf(100, 100, 100, 100)))
	assert.Zero(t, SharpeRatio(curveOf(100, 110, 121, 133.1)))
}

func TestSharpeRatioSkipsNonPositiveValues(t *testing.T) {
	// A leading zero-value stretch contributes no returns.
	curve := curveOf(0, 0, 100, 110, 99)
	got := SharpeRatio(curve)
	assert.False(t, math.IsNaN(got))
	assert.False(t, math.IsInf(got, 0))
}

func TestSharpeRatioJaggedGrowth(t *testing.T) {
	up := SharpeRatio(curveOf(100, 112, 118, 140, 151, 177))
	down := SharpeRatio(curveOf(100, 89, 84, 71, 66, 57))
	assert.Positive(t, up)
	assert.Negative(t, down)
}

func TestVariantLabels(t *testing.T) {
	market := pricesEvery(1, 100, 100, 100)
	sentiment := sentimentConst(3, 50)

	results, err := RunAllStrategyVariations(market, sentiment, "SPY",
		decimal.NewFromInt(10000), decimal.NewFromInt(500), DefaultConfig())
	assert.NoError(t, err)

	labels := make([]string, 0, len(results))
	for _, r := range results {
		labels = append(labels, r.StrategyName)
	}
	assert.Equal(t, []string{
		"Fear & Greed",
		"Fear & Greed (extreme only)",
		"Fear & Greed (extreme fear hold)",
		"Fear & Greed (combined)",
	}, labels)
}
