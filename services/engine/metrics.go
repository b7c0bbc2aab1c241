package engine

import "math"

// AnnualizedReturn converts a total return over daysElapsed calendar days to
// a yearly rate. Zero-duration series yield 0; a total loss caps at -1.
func AnnualizedReturn(totalReturn float64, daysElapsed int) float64 {
	if daysElapsed <= 0 {
		return 0
	}
	base := 1 + totalReturn
	if base <= 0 {
		return -1
	}
	return math.Pow(base, 365.0/float64(daysElapsed)) - 1
}

// SharpeRatio computes the annualized mean/stddev of per-interval equity
// returns. The annualization factor follows the curve's own cadence. Curves
// too short to produce two returns, or with zero variance, yield 0.
func SharpeRatio(curve []EquityPoint) float64 {
	if len(curve) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if !prev.IsPositive() {
			continue
		}
		r, _ := curve[i].Value.Div(prev).Sub(one).Float64()
		returns = append(returns, r)
	}
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}

	periodsPerYear := 252.0
	span := curve[len(curve)-1].Date.Sub(curve[0].Date).Hours() / 24
	if span > 0 {
		if avgGap := span / float64(len(returns)); avgGap > 0 {
			periodsPerYear = 365.0 / avgGap
		}
	}
	return mean / std * math.Sqrt(periodsPerYear)
}

// buildResult assembles the immutable StrategyResult once the walk finishes.
func (s *Simulation) buildResult(market []PricePoint) *StrategyResult {
	first := market[0]
	last := market[len(market)-1]

	finalValue := s.portfolioValue(last.Close)
	totalReturn := 0.0
	if s.Portfolio.TotalInvested.IsPositive() {
		totalReturn, _ = finalValue.Div(s.Portfolio.TotalInvested).Sub(one).Float64()
	}

	holdValue := s.HoldShares.Mul(last.Close)
	holdReturn := 0.0
	if s.HoldInvested.IsPositive() {
		holdReturn, _ = holdValue.Div(s.HoldInvested).Sub(one).Float64()
	}

	daysElapsed := daysBetween(first.Date, last.Date)

	return &StrategyResult{
		Symbol:               s.Symbol,
		StrategyName:         variantLabel(s.Variant),
		Trades:               s.Trades,
		FinalValue:           finalValue,
		TotalReturn:          totalReturn,
		AnnualizedReturn:     AnnualizedReturn(totalReturn, daysElapsed),
		SharpeRatio:          SharpeRatio(s.EquityCurve),
		MaxDrawdown:          MaxDrawdown(s.EquityCurve),
		BuyAndHoldValue:      holdValue,
		BuyAndHoldReturn:     holdReturn,
		SkippedContributions: s.SkippedContributions,
		TotalContributions:   s.TotalContributions,
		TotalInvested:        s.Portfolio.TotalInvested,
		AccumulatedCash:      s.Portfolio.AccumulatedCash,
		StartDate:            first.Date,
		EndDate:              last.Date,
		EquityCurve:          s.EquityCurve,
		Debug:                s.Debug,
	}
}

func variantLabel(v StrategyVariant) string {
	switch v {
	case VariantExtremeOnly:
		return "Fear & Greed (extreme only)"
	case VariantExtremeFearHold:
		return "Fear & Greed (extreme fear hold)"
	case VariantCombined:
		return "Fear & Greed (combined)"
	default:
		return "Fear & Greed"
	}
}
