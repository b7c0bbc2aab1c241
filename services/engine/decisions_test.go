package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldInvestVariantRules(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name      string
		variant   StrategyVariant
		value     int
		downtrend bool
		want      bool
	}{
		{"default below fear", VariantDefault, 35, false, true},
		{"default at fear", VariantDefault, 40, false, true},
		{"default above fear", VariantDefault, 41, false, false},
		{"default neutral", VariantDefault, 50, false, false},
		{"extreme-only needs extreme", VariantExtremeOnly, 35, false, false},
		{"extreme-only at extreme", VariantExtremeOnly, 20, false, true},
		{"extreme-fear-hold at extreme", VariantExtremeFearHold, 15, false, true},
		{"extreme-fear-hold above extreme", VariantExtremeFearHold, 25, false, false},
		{"combined below fear", VariantCombined, 35, false, true},
		{"combined above fear", VariantCombined, 45, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ShouldInvest(tt.value, tt.downtrend, tt.variant))
		})
	}
}

func TestShouldInvestDowntrendVeto(t *testing.T) {
	cfg := DefaultConfig()

	// The veto flips an affirmative unless sentiment is at extreme fear.
	assert.False(t, cfg.ShouldInvest(30, true, VariantDefault))
	assert.True(t, cfg.ShouldInvest(30, false, VariantDefault))
	assert.True(t, cfg.ShouldInvest(15, true, VariantDefault))

	// It applies to every variant, not only the default rule.
	assert.False(t, cfg.ShouldInvest(30, true, VariantCombined))
	assert.True(t, cfg.ShouldInvest(18, true, VariantExtremeOnly))
}

func TestShouldSellVariantRules(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		variant StrategyVariant
		value   int
		want    bool
	}{
		{"default at greed", VariantDefault, 85, true},
		{"default below greed", VariantDefault, 84, false},
		{"extreme-only at extreme greed", VariantExtremeOnly, 80, true},
		{"extreme-only below extreme greed", VariantExtremeOnly, 79, false},
		{"combined uses lower bound", VariantCombined, 82, true},
		{"combined below both", VariantCombined, 79, false},
		{"hold never sells", VariantExtremeFearHold, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cfg.ShouldSell(tt.value, tt.variant))
		})
	}
}

func TestShouldDouble(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.ShouldDouble(20))
	assert.True(t, cfg.ShouldDouble(0))
	assert.False(t, cfg.ShouldDouble(21))
}

func TestLumpSumAllocation(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		value int
		want  float64
	}{
		{0, 0.70},   // severity 1.0, extreme band
		{10, 0.625}, // severity 0.75, extreme band
		{20, 0.55},  // severity 0.50, extreme band
		{30, 0.425}, // severity 0.25, regular band
		{40, 0.40},  // severity 0
		{80, 0.40},  // severity clamps at 0
	}
	for _, tt := range tests {
		got, _ := cfg.LumpSumAllocation(tt.value).Float64()
		assert.InDelta(t, tt.want, got, 1e-9, "value %d", tt.value)
	}
}
