//! Fear & Greed index derivation
//!
//! CNN-methodology composite computed from a single OHLCV series: seven
//! equally weighted components, exponential smoothing, spread transform.
//! Component math runs in float64; only the published value is integral.

package sentiment

import (
	"fmt"
	"math"
	"math/rand"

	"sentiment-backtest/services/engine"
	"sentiment-backtest/services/marketdata"
)

// MinHistory is the shortest series the derivation accepts: one trading
// year, needed for the 52-week strength component.
const MinHistory = 252

// IndexOptions control the optional Gaussian jitter applied after
// smoothing. The jitter breaks up long neutral stretches in flat markets;
// the same seed reproduces the same series.
type IndexOptions struct {
	Jitter bool
	Seed   int64
}

// DeriveIndex computes a daily sentiment series from bars. Components that
// are undefined early in the series (momentum lookbacks, RSI warmup) leave
// those days at neutral 50.
func DeriveIndex(bars []marketdata.Bar, opts IndexOptions) ([]engine.SentimentPoint, error) {
	if len(bars) < MinHistory {
		return nil, fmt.Errorf("need at least %d bars to derive the index, got %d", MinHistory, len(bars))
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i], _ = b.Close.Float64()
		highs[i], _ = b.High.Float64()
		lows[i], _ = b.Low.Float64()
		volumes[i], _ = b.Volume.Float64()
	}

	momentum := momentumComponent(closes)
	strength := strengthComponent(closes, highs, lows)
	breadth := breadthComponent(closes, volumes)
	options := optionsComponent(closes)
	volRisk := volatilityComponent(closes)
	safeHaven := rsiComponent(closes)

	// Equal weights; the volatility reading serves both the junk-bond and
	// market-volatility slots.
	composite := make([]float64, n)
	for i := 0; i < n; i++ {
		parts := [7]float64{momentum[i], strength[i], breadth[i], options[i], volRisk[i], volRisk[i], safeHaven[i]}
		sum, defined := 0.0, true
		for _, p := range parts {
			if math.IsNaN(p) {
				defined = false
				break
			}
			sum += p
		}
		if !defined {
			composite[i] = math.NaN()
			continue
		}
		composite[i] = sum / 7
	}

	smoothed := ewm(composite, 10)

	var rng *rand.Rand
	if opts.Jitter {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	points := make([]engine.SentimentPoint, 0, n)
	for i := 0; i < n; i++ {
		v := smoothed[i]
		if math.IsNaN(v) {
			v = 50
		} else {
			v = clip((v-40)*1.5 + 50)
		}
		if rng != nil {
			v = clip(v + rng.NormFloat64()*5)
		}
		value := int(math.Round(v))
		points = append(points, engine.SentimentPoint{
			Date:           bars[i].Date,
			Value:          value,
			Classification: Classify(value),
		})
	}
	return points, nil
}

// momentumComponent compares the close to its 125-day moving average.
func momentumComponent(closes []float64) []float64 {
	out := make([]float64, len(closes))
	sum := 0.0
	for i := range closes {
		sum += closes[i]
		if i >= 125 {
			sum -= closes[i-125]
		}
		window := i + 1
		if window > 125 {
			window = 125
		}
		ma := sum / float64(window)
		m := (closes[i] - ma) / ma * 100
		out[i] = clip((m + 20) * 2.5)
	}
	return out
}

// strengthComponent checks whether the close sits within 5% of its
// 52-week high or low.
func strengthComponent(closes, highs, lows []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		start := i - 251
		if start < 0 {
			start = 0
		}
		hi, lo := highs[start], lows[start]
		for j := start + 1; j <= i; j++ {
			if highs[j] > hi {
				hi = highs[j]
			}
			if lows[j] < lo {
				lo = lows[j]
			}
		}
		var nearHigh, nearLow float64
		if closes[i] > hi*0.95 {
			nearHigh = 1
		}
		if closes[i] < lo*1.05 {
			nearLow = 1
		}
		out[i] = clip(((nearHigh-nearLow)*100 + 40) * 1.25)
	}
	return out
}

// breadthComponent compares exponential averages of advancing vs declining
// volume (McClellan-style, spans 19 and 39).
func breadthComponent(closes, volumes []float64) []float64 {
	n := len(closes)
	advancing := make([]float64, n)
	declining := make([]float64, n)
	for i := 1; i < n; i++ {
		switch {
		case closes[i] > closes[i-1]:
			advancing[i] = volumes[i]
		case closes[i] < closes[i-1]:
			declining[i] = volumes[i]
		}
	}
	e19 := ewm(advancing, 19)
	e39 := ewm(declining, 39)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		b := (e19[i] - e39[i]) / (e39[i] + 1e-6) * 100
		out[i] = clip((b + 30) * 1.5)
	}
	return out
}

// optionsComponent proxies the put/call ratio with 5-day price momentum.
func optionsComponent(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		if i < 5 || closes[i-5] == 0 {
			out[i] = math.NaN()
			continue
		}
		pm := (closes[i]/closes[i-5] - 1) * 100
		out[i] = clip((pm + 10) * 3)
	}
	return out
}

// volatilityComponent is the annualized 10-day standard deviation of daily
// returns, inverted so that calm markets read greedy.
func volatilityComponent(closes []float64) []float64 {
	n := len(closes)
	returns := make([]float64, n)
	returns[0] = math.NaN()
	for i := 1; i < n; i++ {
		if closes[i-1] == 0 {
			returns[i] = math.NaN()
			continue
		}
		returns[i] = closes[i]/closes[i-1] - 1
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		start := i - 9
		if start < 1 {
			start = 1
		}
		var sum float64
		var count int
		for j := start; j <= i; j++ {
			if math.IsNaN(returns[j]) {
				continue
			}
			sum += returns[j]
			count++
		}
		if count < 2 {
			out[i] = math.NaN()
			continue
		}
		mean := sum / float64(count)
		var variance float64
		for j := start; j <= i; j++ {
			if math.IsNaN(returns[j]) {
				continue
			}
			d := returns[j] - mean
			variance += d * d
		}
		variance /= float64(count - 1)
		vol := math.Sqrt(variance) * math.Sqrt(252) * 100
		out[i] = clip(100 - 2*vol)
	}
	return out
}

// rsiComponent is Wilder's RSI(14), the safe-haven proxy.
func rsiComponent(closes []float64) []float64 {
	const period = 14
	n := len(closes)
	out := make([]float64, n)
	alpha := 1.0 / period

	var avgGain, avgLoss float64
	count := 0
	for i := 0; i < n; i++ {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		change := closes[i] - closes[i-1]
		var gain, loss float64
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		count++
		if count == 1 {
			avgGain, avgLoss = gain, loss
		} else {
			avgGain = gain*alpha + avgGain*(1-alpha)
			avgLoss = loss*alpha + avgLoss*(1-alpha)
		}
		if count < period {
			out[i] = math.NaN()
			continue
		}
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

// ewm is exponential smoothing with alpha = 2/(span+1), seeded with the
// first valid input. NaN inputs leave the state untouched; output stays NaN
// until the first valid input arrives.
func ewm(xs []float64, span int) []float64 {
	out := make([]float64, len(xs))
	alpha := 2.0 / float64(span+1)
	state := math.NaN()
	for i, x := range xs {
		if !math.IsNaN(x) {
			if math.IsNaN(state) {
				state = x
			} else {
				state = x*alpha + state*(1-alpha)
			}
		}
		out[i] = state
	}
	return out
}

func clip(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
