package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-backtest/services/engine"
)

func sampleResult() *engine.StrategyResult {
	start := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	return &engine.StrategyResult{
		Symbol:       "SPY",
		StrategyName: "Fear & Greed",
		Trades: []engine.Trade{
			{
				Date:   start,
				Type:   engine.TradeBuy,
				Price:  decimal.NewFromInt(100),
				Shares: decimal.NewFromInt(10),
				Value:  decimal.NewFromInt(1000),
				Reason: "Extreme fear (25)",
			},
			{
				Date:   start.AddDate(0, 1, 0),
				Type:   engine.TradeSell,
				Price:  decimal.NewFromInt(120),
				Shares: decimal.NewFromInt(3),
				Value:  decimal.NewFromInt(360),
				Reason: "Extreme greed (88)",
			},
		},
		FinalValue:           decimal.NewFromFloat(1234.56),
		TotalReturn:          0.2345,
		AnnualizedReturn:     0.08,
		SharpeRatio:          0.52,
		MaxDrawdown:          0.231,
		BuyAndHoldValue:      decimal.NewFromInt(1100),
		BuyAndHoldReturn:     0.10,
		SkippedContributions: 3,
		TotalContributions:   10,
		TotalInvested:        decimal.NewFromInt(1000),
		AccumulatedCash:      decimal.Zero,
		StartDate:            start,
		EndDate:              start.AddDate(1, 0, 0),
		EquityCurve: []engine.EquityPoint{
			{Date: start, Value: decimal.NewFromInt(1000)},
			{Date: start.AddDate(0, 0, 1), Value: decimal.NewFromFloat(1010.50)},
			{Date: start.AddDate(0, 0, 2), Value: decimal.NewFromFloat(995.25)},
		},
		Debug: engine.DebugCounters{
			StrategyVariant: "default",
			ExecutedBuys:    1,
			ExecutedSells:   1,
		},
	}
}

func TestSummaryContents(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, sampleResult())

	out := buf.String()
	assert.Contains(t, out, "=== BACKTEST SUMMARY ===")
	assert.Contains(t, out, "Strategy: Fear & Greed")
	assert.Contains(t, out, "Symbol: SPY")
	assert.Contains(t, out, "Period: 2020-01-02 -> 2021-01-02")
	assert.Contains(t, out, "Final Value: $1234.56")
	assert.Contains(t, out, "Total Return: 23.45%")
	assert.Contains(t, out, "Max Drawdown: 23.10%")
	assert.Contains(t, out, "Trades: 2 (1 buys, 1 sells)")
	assert.Contains(t, out, "Contributions: 10 total, 3 deferred")
	assert.NotContains(t, out, "Accumulated Cash")
}

func TestSummaryShowsAccumulatedCash(t *testing.T) {
	result := sampleResult()
	result.AccumulatedCash = decimal.NewFromInt(500)

	var buf bytes.Buffer
	Summary(&buf, result)

	assert.Contains(t, buf.String(), "Accumulated Cash: $500.00")
}

func TestComparisonTableRows(t *testing.T) {
	first := sampleResult()
	second := sampleResult()
	second.StrategyName = "Fear & Greed (extreme only)"

	var buf bytes.Buffer
	ComparisonTable(&buf, []*engine.StrategyResult{first, second})

	out := buf.String()
	assert.Contains(t, out, "=== STRATEGY COMPARISON ===")
	assert.Contains(t, out, "Fear & Greed (extreme only)")
	assert.Contains(t, out, "Buy & Hold")
	assert.Contains(t, out, "$1100.00")

	// Banner, header, two variant rows, baseline row, closing rule.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
}

func TestComparisonTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	ComparisonTable(&buf, nil)
	assert.Empty(t, buf.String())
}
