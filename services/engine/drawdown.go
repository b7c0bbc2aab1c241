package engine

// MaxDrawdown returns the largest peak-to-trough decline over the equity
// curve as a fraction of the peak. The running peak seeds from the first
// entry; zero peaks are skipped so the division stays defined. An empty
// curve yields 0.
func MaxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Value
	maxDD := 0.0
	for _, pt := range curve {
		if pt.Value.GreaterThan(peak) {
			peak = pt.Value
		}
		if peak.IsZero() {
			continue
		}
		dd, _ := peak.Sub(pt.Value).Div(peak).Float64()
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
