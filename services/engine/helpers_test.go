package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func day(n int) time.Time {
	return testEpoch.AddDate(0, 0, n)
}

// pricesEvery builds a series with one point every stepDays, taking closes in
// order.
func pricesEvery(stepDays int, closes ...float64) []PricePoint {
	pts := make([]PricePoint, 0, len(closes))
	for i, c := range closes {
		pts = append(pts, PricePoint{Date: day(i * stepDays), Close: decimal.NewFromFloat(c)})
	}
	return pts
}

// sentimentAt builds sentiment points from dayOffset -> value pairs.
func sentimentAt(points map[int]int) []SentimentPoint {
	max := -1
	for d := range points {
		if d > max {
			max = d
		}
	}
	out := make([]SentimentPoint, 0, len(points))
	for d := 0; d <= max; d++ {
		if v, ok := points[d]; ok {
			out = append(out, SentimentPoint{Date: day(d), Value: v})
		}
	}
	return out
}

// sentimentConst covers days [0, days) with the same value.
func sentimentConst(days, value int) []SentimentPoint {
	out := make([]SentimentPoint, 0, days)
	for d := 0; d < days; d++ {
		out = append(out, SentimentPoint{Date: day(d), Value: value})
	}
	return out
}
