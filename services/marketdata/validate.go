package marketdata

import (
	"fmt"
	"log"
	"math"

	"sentiment-backtest/services/engine"
)

// Validate runs the quality gates over a close series before it reaches the
// engine: monotonic dates, positive closes, no epidemic of wild jumps.
// Isolated oddities warn; structural problems refuse the whole series.
func Validate(name string, points []engine.PricePoint) error {
	if len(points) == 0 {
		return fmt.Errorf("no data loaded")
	}

	log.Printf("🔍 Starting data quality validation on %d points (%s)...", len(points), name)

	var badOrder, nonPositive, jumps int
	minC, maxC := math.MaxFloat64, 0.0
	for i := 0; i < len(points); i++ {
		c, _ := points[i].Close.Float64()
		if c <= 0 {
			nonPositive++
			continue
		}
		if c < minC {
			minC = c
		}
		if c > maxC {
			maxC = c
		}
		if i == 0 {
			continue
		}
		if !points[i].Date.After(points[i-1].Date) {
			badOrder++
		}
		p, _ := points[i-1].Close.Float64()
		if p > 0 && math.Abs(c/p-1) > 0.2 { // >20% jump point-to-point
			jumps++
		}
	}

	log.Printf("📊 Date validation: badOrder=%d nonPositive=%d", badOrder, nonPositive)
	log.Printf("💰 Price validation: minClose=%.2f maxClose=%.2f jumps>20%%=%d", minC, maxC, jumps)

	// Hard guards - refuse bad data files
	if badOrder > 0 {
		return fmt.Errorf("❌ REFUSED: %d points have non-monotonic dates (out-of-order data)", badOrder)
	}
	if nonPositive > 0 {
		return fmt.Errorf("❌ REFUSED: %d points have non-positive closes", nonPositive)
	}

	jumpRatio := float64(jumps) / float64(len(points))
	if jumpRatio > 0.05 { // More than 5% of points with wild jumps
		return fmt.Errorf("❌ REFUSED: %.1f%% of points have >20%% jumps (%d/%d points) - data appears corrupted",
			jumpRatio*100, jumps, len(points))
	}
	if jumps > 0 {
		log.Printf("⚠️  WARNING: %d wild jumps detected (tolerated below the 5%% ratio)", jumps)
	}

	return nil
}
