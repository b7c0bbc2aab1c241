//! Sentiment loading and classification
//!
//! Fear & Greed series come from CSV, ClickHouse, a live fetch, or are
//! derived from OHLCV data. Values are 0 (deep fear) to 100 (deep greed).

package sentiment

// Classification bands
const (
	ExtremeGreed = "Extreme Greed"
	Greed        = "Greed"
	Neutral      = "Neutral"
	Fear         = "Fear"
	ExtremeFear  = "Extreme Fear"
)

// Classify maps an index value to its band.
func Classify(value int) string {
	switch {
	case value >= 75:
		return ExtremeGreed
	case value >= 55:
		return Greed
	case value >= 45:
		return Neutral
	case value >= 25:
		return Fear
	default:
		return ExtremeFear
	}
}
