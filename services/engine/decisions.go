//! Per-day buy/sell decisions
//!
//! Pure functions of (sentiment value, trend, variant). The fear and greed
//! thresholds are configurable; the extreme thresholds are fixed.

package engine

import "github.com/shopspring/decimal"

// Extreme thresholds are implementation constants, deliberately not part of
// Config.
const (
	ExtremeFearThreshold  = 20
	ExtremeGreedThreshold = 80
)

// Config holds the overridable sentiment thresholds.
type Config struct {
	FearThreshold  int `json:"fear_threshold" mapstructure:"FEAR_THRESHOLD"`
	GreedThreshold int `json:"greed_threshold" mapstructure:"GREED_THRESHOLD"`
}

// DefaultConfig returns the standard thresholds: buy into fear below 40,
// trim into greed above 85.
func DefaultConfig() Config {
	return Config{FearThreshold: 40, GreedThreshold: 85}
}

var (
	sellFraction = decimal.NewFromFloat(0.30)
	minSellGain  = decimal.NewFromFloat(0.10)
	two          = decimal.NewFromInt(2)
	one          = decimal.NewFromInt(1)
)

// ShouldInvest decides whether new contribution money (or, on the lump-sum
// path, a slice of cash) is deployed today. The variant rule runs first; a
// downtrend then vetoes an affirmative answer unless sentiment already sits
// at extreme fear. The veto order is load-bearing: it can override any
// variant's rule, not only the default one.
func (c Config) ShouldInvest(value int, inDowntrend bool, variant StrategyVariant) bool {
	var invest bool
	switch variant {
	case VariantExtremeOnly, VariantExtremeFearHold:
		invest = value <= ExtremeFearThreshold
	case VariantCombined:
		invest = value <= c.FearThreshold || value <= ExtremeFearThreshold
	default:
		invest = value <= c.FearThreshold
	}
	if invest && inDowntrend && value > ExtremeFearThreshold {
		invest = false
	}
	return invest
}

// ShouldDouble reports whether a deployed contribution is doubled.
func (c Config) ShouldDouble(value int) bool {
	return value <= ExtremeFearThreshold
}

// ShouldSell applies the per-variant greed rule. The profit and cooldown
// gates live in the simulation loop; extreme-fear-hold never sells.
func (c Config) ShouldSell(value int, variant StrategyVariant) bool {
	switch variant {
	case VariantExtremeFearHold:
		return false
	case VariantExtremeOnly:
		return value >= ExtremeGreedThreshold
	case VariantCombined:
		return value >= c.GreedThreshold || value >= ExtremeGreedThreshold
	default:
		return value >= c.GreedThreshold
	}
}

// LumpSumAllocation returns the fraction of current cash a lump-sum buy
// deploys: a 40% base plus a fear-severity bonus, 30 points of bonus range
// under extreme fear and 10 otherwise. Severity is (fear - value)/fear
// clamped to [0, 1], so allocations span 40-70% and 40-50%.
func (c Config) LumpSumAllocation(value int) decimal.Decimal {
	severity := 0.0
	if c.FearThreshold > 0 {
		severity = float64(c.FearThreshold-value) / float64(c.FearThreshold)
	}
	if severity < 0 {
		severity = 0
	}
	if severity > 1 {
		severity = 1
	}
	alloc := 0.40
	if value <= ExtremeFearThreshold {
		alloc += severity * 0.30
	} else {
		alloc += severity * 0.10
	}
	return decimal.NewFromFloat(alloc)
}
