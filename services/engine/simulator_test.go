package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunFailsOnEmptyMarket(t *testing.T) {
	_, err := RunBacktest(nil, sentimentConst(10, 50), "SPY", decimal.NewFromInt(10000), VariantDefault, Options{})

	var noData *NoMarketDataError
	require.True(t, errors.As(err, &noData))
	assert.Equal(t, "SPY", noData.Symbol)
}

func TestRunFailsOnInvalidBoundary(t *testing.T) {
	market := []PricePoint{
		{Date: day(0), Close: decimal.Zero},
		{Date: day(1), Close: decimal.NewFromInt(100)},
	}
	_, err := RunBacktest(market, nil, "QQQ", decimal.NewFromInt(10000), VariantDefault, Options{})

	var invalid *InvalidMarketDataError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "QQQ", invalid.Symbol)
}

func TestSinglePointLumpSum(t *testing.T) {
	market := pricesEvery(1, 100)
	capital := decimal.NewFromInt(10000)

	res, err := RunBacktest(market, nil, "SPY", capital, VariantDefault, Options{UseLumpSum: true})
	require.NoError(t, err)

	// The one trade is the terminal sweep: all capital at the only price.
	require.Len(t, res.Trades, 1)
	assert.Equal(t, TradeBuy, res.Trades[0].Type)
	assert.True(t, res.Trades[0].Value.Equal(capital), "trade value %s", res.Trades[0].Value)
	assert.True(t, res.FinalValue.Equal(capital), "final value %s", res.FinalValue)
	assert.Zero(t, res.TotalReturn)
	assert.Zero(t, res.AnnualizedReturn)
	assert.Zero(t, res.MaxDrawdown)
	assert.True(t, res.TotalInvested.Equal(capital))
}

func TestWeeklyContributionDeferredAtNeutral(t *testing.T) {
	market := pricesEvery(7, 100, 100)
	sentiment := []SentimentPoint{{Date: day(7), Value: 50}}

	res, err := RunBacktest(market, sentiment, "SPY", decimal.Zero, VariantDefault, Options{
		WeeklyContribution: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.SkippedContributions)
	assert.Equal(t, 1, res.TotalContributions)
	assert.Empty(t, res.Trades)
	assert.True(t, res.AccumulatedCash.Equal(decimal.NewFromInt(500)))
	assert.True(t, res.FinalValue.Equal(decimal.NewFromInt(500)))
	assert.True(t, res.TotalInvested.IsZero())
	assert.Zero(t, res.TotalReturn, "return undefined without invested capital")
}

func TestContributionDeferredWithoutSentimentData(t *testing.T) {
	market := pricesEvery(7, 100, 100, 100)

	res, err := RunBacktest(market, nil, "SPY", decimal.Zero, VariantDefault, Options{
		WeeklyContribution: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TotalContributions)
	assert.Equal(t, 2, res.SkippedContributions)
	assert.Equal(t, 3, res.Debug.SentimentMisses)
	assert.True(t, res.AccumulatedCash.Equal(decimal.NewFromInt(1000)))
}

// TestPeriodicLedgerAccounting walks a fully hand-computed weekly scenario:
// defer at neutral, plain deploy in fear, doubled deploy plus accumulated
// release at extreme fear, then a profitable trim at greed and the terminal
// sweep of the proceeds.
func TestPeriodicLedgerAccounting(t *testing.T) {
	market := pricesEvery(7, 100, 100, 100, 100, 130)
	sentiment := []SentimentPoint{
		{Date: day(0), Value: 50},
		{Date: day(7), Value: 50},  // defer 500
		{Date: day(14), Value: 30}, // deploy 500
		{Date: day(21), Value: 10}, // deploy 2x500 + release 500
		{Date: day(28), Value: 90}, // defer 500, then trim 30%
	}

	res, err := RunBacktest(market, sentiment, "SPY", decimal.Zero, VariantDefault, Options{
		WeeklyContribution: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.Equal(t, 4, res.TotalContributions)
	assert.Equal(t, 2, res.SkippedContributions)
	assert.True(t, res.TotalInvested.Equal(decimal.NewFromInt(2000)),
		"invested %s: 500 deployed + 1500 doubled-and-released", res.TotalInvested)

	// day14: 5 shares, day21: 15 shares, day28: sell 6 of 20, sweep rebuys 6.
	require.Len(t, res.Trades, 4)
	assert.Equal(t, TradeBuy, res.Trades[0].Type)
	assert.True(t, res.Trades[1].Value.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, TradeSell, res.Trades[2].Type)
	assert.True(t, res.Trades[2].Shares.Equal(decimal.NewFromInt(6)))
	assert.Equal(t, TradeBuy, res.Trades[3].Type)

	// 20 shares at 130 plus the 500 still accumulated.
	assert.True(t, res.FinalValue.Equal(decimal.NewFromInt(3100)), "final %s", res.FinalValue)
	assert.True(t, res.AccumulatedCash.Equal(decimal.NewFromInt(500)))
	assert.InDelta(t, 0.55, res.TotalReturn, 1e-12)
}

func TestExtremeFearHoldNeverSells(t *testing.T) {
	// Extreme fear early, then a long run of extreme greed with a big gain.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}
	market := pricesEvery(1, closes...)
	sentiment := make([]SentimentPoint, 60)
	for i := range sentiment {
		v := 10
		if i >= 3 {
			v = 95
		}
		sentiment[i] = SentimentPoint{Date: day(i), Value: v}
	}

	res, err := RunBacktest(market, sentiment, "SPY", decimal.NewFromInt(10000), VariantExtremeFearHold, Options{UseLumpSum: true})
	require.NoError(t, err)

	for _, tr := range res.Trades {
		assert.NotEqual(t, TradeSell, tr.Type, "hold variant sold on %s", tr.Date)
	}
	assert.Positive(t, res.Debug.ExecutedBuys)
	assert.Zero(t, res.Debug.ExecutedSells)

	// Identical input under the default variant does produce a sell.
	def, err := RunBacktest(market, sentiment, "SPY", decimal.NewFromInt(10000), VariantDefault, Options{UseLumpSum: true})
	require.NoError(t, err)
	assert.Positive(t, def.Debug.ExecutedSells)
}

func TestSellSizingThirtyPercent(t *testing.T) {
	s := NewSimulation("SPY", VariantDefault)
	s.Portfolio.Shares = decimal.NewFromInt(100)
	s.Portfolio.LastBuyPrice = decimal.NewFromInt(100)

	s.evaluateSell(PricePoint{Date: day(30), Close: decimal.NewFromInt(120)}, 90, false)

	require.Len(t, s.Trades, 1)
	assert.Equal(t, TradeSell, s.Trades[0].Type)
	assert.True(t, s.Trades[0].Shares.Equal(decimal.NewFromInt(30)), "sold %s", s.Trades[0].Shares)
	assert.True(t, s.Portfolio.Shares.Equal(decimal.NewFromInt(70)), "left %s", s.Portfolio.Shares)
	assert.True(t, s.Portfolio.Cash.Equal(decimal.NewFromInt(3600)))
}

func TestSellRequiresTenPercentGain(t *testing.T) {
	s := NewSimulation("SPY", VariantDefault)
	s.Portfolio.Shares = decimal.NewFromInt(100)
	s.Portfolio.LastBuyPrice = decimal.NewFromInt(100)

	s.evaluateSell(PricePoint{Date: day(30), Close: decimal.NewFromInt(109)}, 90, false)
	assert.Empty(t, s.Trades, "9%% gain must not trigger a sell")

	s.evaluateSell(PricePoint{Date: day(30), Close: decimal.NewFromInt(110)}, 90, false)
	assert.Len(t, s.Trades, 1, "10%% gain sells")
}

func TestSellBlockedByCooldown(t *testing.T) {
	s := NewSimulation("SPY", VariantDefault)
	s.Portfolio.Shares = decimal.NewFromInt(100)
	s.Portfolio.LastBuyPrice = decimal.NewFromInt(100)

	s.evaluateSell(PricePoint{Date: day(30), Close: decimal.NewFromInt(150)}, 90, true)

	assert.Empty(t, s.Trades)
	assert.Equal(t, 1, s.Debug.SkippedByCooldown)
}

func TestRunAllStrategyVariationsOrder(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	market := pricesEvery(7, closes...)
	sentiment := sentimentConst(30*7, 35)

	results, err := RunAllStrategyVariations(market, sentiment, "SPY",
		decimal.NewFromInt(10000), decimal.NewFromInt(500), DefaultConfig())
	require.NoError(t, err)

	require.Len(t, results, 4)
	for i, variant := range AllVariants {
		assert.Equal(t, string(variant), results[i].Debug.StrategyVariant)
		assert.Equal(t, "SPY", results[i].Symbol)
	}
}

// TestInvariantsUnderChurn drives a long oscillating series through every
// variant and checks the ledger invariants that must hold after any day:
// non-negative cash and shares, a non-negative equity curve, and a trade log
// that never sells more than it holds.
func TestInvariantsUnderChurn(t *testing.T) {
	n := 400
	closes := make([]float64, n)
	sentiment := make([]SentimentPoint, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + 30*math.Sin(float64(i)/10)
		sentiment[i] = SentimentPoint{Date: day(i), Value: (i * 7) % 101}
	}
	market := pricesEvery(1, closes...)

	for _, variant := range AllVariants {
		for _, lump := range []bool{false, true} {
			res, err := RunBacktest(market, sentiment, "SPY", decimal.NewFromInt(10000), variant, Options{
				WeeklyContribution: decimal.NewFromInt(500),
				UseLumpSum:         lump,
			})
			require.NoError(t, err, "variant %s lump %v", variant, lump)

			for _, pt := range res.EquityCurve {
				assert.False(t, pt.Value.IsNegative(), "equity negative on %s (%s lump=%v)", pt.Date, variant, lump)
			}

			held := decimal.Zero
			for _, tr := range res.Trades {
				assert.False(t, tr.Shares.IsNegative())
				assert.False(t, tr.Value.IsNegative())
				switch tr.Type {
				case TradeBuy:
					held = held.Add(tr.Shares)
				case TradeSell:
					held = held.Sub(tr.Shares)
				}
				assert.False(t, held.IsNegative(), "oversold on %s (%s lump=%v)", tr.Date, variant, lump)
			}

			assert.GreaterOrEqual(t, res.MaxDrawdown, 0.0)
			assert.LessOrEqual(t, res.MaxDrawdown, 1.0)
			assert.False(t, res.FinalValue.IsNegative())
		}
	}
}

func TestLumpSumBuySizing(t *testing.T) {
	// Flat prices, one extreme-fear day, then neutral: a single sized buy
	// followed by the terminal sweep.
	market := pricesEvery(1, 100, 100, 100)
	sentiment := []SentimentPoint{
		{Date: day(0), Value: 10},
		{Date: day(1), Value: 50},
		{Date: day(2), Value: 50},
	}

	res, err := RunBacktest(market, sentiment, "SPY", decimal.NewFromInt(10000), VariantDefault, Options{UseLumpSum: true})
	require.NoError(t, err)

	// Sentiment 10: severity 0.75 in the extreme band, 62.5% of cash.
	require.NotEmpty(t, res.Trades)
	assert.True(t, res.Trades[0].Value.Equal(decimal.NewFromInt(6250)), "first buy %s", res.Trades[0].Value)

	// Flat prices keep the final value at the injected capital.
	assert.True(t, res.FinalValue.Equal(decimal.NewFromInt(10000)))
	assert.True(t, res.TotalInvested.Equal(decimal.NewFromInt(10000)))
}

func TestWeeklyPathIgnoresCooldown(t *testing.T) {
	// Daily cadence (15-day buy cooldown) with fear every day: weekly
	// deployments keep firing every 7 days even though each one re-arms
	// the buy cooldown window.
	n := 30
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100
	}
	market := pricesEvery(1, closes...)
	sentiment := sentimentConst(n, 30)

	res, err := RunBacktest(market, sentiment, "SPY", decimal.Zero, VariantDefault, Options{
		WeeklyContribution: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	// Contribution days: 7, 14, 21, 28. All deploy despite cooldown.
	assert.Equal(t, 4, res.TotalContributions)
	assert.Equal(t, 0, res.SkippedContributions)
	assert.Equal(t, 4, res.Debug.ExecutedBuys)
}
