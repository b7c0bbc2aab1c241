package engine

import "time"

// CooldownPolicy spaces trades according to the detected data cadence. The
// buy window counts days since the last buy, the sell window days since the
// last sell; a portfolio inside either window is in cooldown.
type CooldownPolicy struct {
	BuyDays  int
	SellDays int
}

// NewCooldownPolicy samples up to the first 10 gaps of the price series,
// averages them in days and classifies the cadence:
//
//	avg > 20d (monthly/quarterly) -> 1 period
//	avg in (5, 20]d (weekly)      -> 3 periods
//	avg <= 5d (daily)             -> 15 periods
//	under 2 points                -> 20 (fallback)
//
// The sell window is always ceil(buy/2).
func NewCooldownPolicy(prices []PricePoint) CooldownPolicy {
	if len(prices) < 2 {
		return CooldownPolicy{BuyDays: 20, SellDays: 10}
	}
	samples := len(prices) - 1
	if samples > 10 {
		samples = 10
	}
	var total float64
	for i := 1; i <= samples; i++ {
		total += prices[i].Date.Sub(prices[i-1].Date).Hours() / 24
	}
	avg := total / float64(samples)

	var days int
	switch {
	case avg > 20:
		days = 1
	case avg > 5:
		days = 3
	default:
		days = 15
	}
	return CooldownPolicy{BuyDays: days, SellDays: (days + 1) / 2}
}

// InCooldown reports whether date falls inside the buy or the sell window of
// the portfolio's last trades.
func (c CooldownPolicy) InCooldown(date time.Time, p *PortfolioState) bool {
	if !p.LastBuyDate.IsZero() && daysBetween(p.LastBuyDate, date) < c.BuyDays {
		return true
	}
	if !p.LastSellDate.IsZero() && daysBetween(p.LastSellDate, date) < c.SellDays {
		return true
	}
	return false
}

// daysBetween returns whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
