package engine

import "github.com/shopspring/decimal"

// TrendWindow is the SMA lookback used by the downtrend classifier.
const TrendWindow = 50

// DetectDowntrend reports whether the close at index sits below the simple
// moving average of the TrendWindow closes immediately preceding it. With
// fewer than TrendWindow prior points the trend is undefined, which is not a
// downtrend signal.
func DetectDowntrend(prices []PricePoint, index int) bool {
	if index < TrendWindow || index >= len(prices) {
		return false
	}
	sum := decimal.Zero
	for i := index - TrendWindow; i < index; i++ {
		sum = sum.Add(prices[i].Close)
	}
	ma := sum.Div(decimal.NewFromInt(TrendWindow))
	return prices[index].Close.LessThan(ma)
}
