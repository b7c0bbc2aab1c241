package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCooldownPolicyCadence(t *testing.T) {
	tests := []struct {
		name     string
		stepDays int
		points   int
		buy      int
		sell     int
	}{
		{"daily", 1, 30, 15, 8},
		{"weekly", 7, 12, 3, 2},
		{"monthly", 30, 6, 1, 1},
		{"quarterly", 91, 5, 1, 1},
		{"single point fallback", 1, 1, 20, 10},
		{"empty fallback", 1, 0, 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closes := make([]float64, tt.points)
			for i := range closes {
				closes[i] = 100
			}
			policy := NewCooldownPolicy(pricesEvery(tt.stepDays, closes...))
			assert.Equal(t, tt.buy, policy.BuyDays)
			assert.Equal(t, tt.sell, policy.SellDays)
		})
	}
}

func TestNewCooldownPolicySamplesFirstTenGaps(t *testing.T) {
	// Ten daily gaps up front, then quarterly: classified as daily.
	pts := pricesEvery(1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	for i := 0; i < 4; i++ {
		last := pts[len(pts)-1]
		pts = append(pts, PricePoint{Date: last.Date.AddDate(0, 0, 90), Close: last.Close})
	}
	policy := NewCooldownPolicy(pts)
	assert.Equal(t, 15, policy.BuyDays)
}

func TestInCooldownWindows(t *testing.T) {
	policy := CooldownPolicy{BuyDays: 15, SellDays: 8}

	p := &PortfolioState{}
	assert.False(t, policy.InCooldown(day(5), p), "no trades yet")

	p.LastBuyDate = day(0)
	assert.True(t, policy.InCooldown(day(14), p))
	assert.False(t, policy.InCooldown(day(15), p))

	p = &PortfolioState{LastSellDate: day(0)}
	assert.True(t, policy.InCooldown(day(7), p))
	assert.False(t, policy.InCooldown(day(8), p))
}
