//! Run reporting: console summary and strategy comparison table
//!
//! Human-readable views of StrategyResult. File and message exports live in
//! export.go, arrow.go and publish.go.

package report

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"sentiment-backtest/services/engine"
)

// Summary writes a single-run report to w.
func Summary(w io.Writer, result *engine.StrategyResult) {
	buys, sells := countTrades(result.Trades)

	fmt.Fprintln(w, "\n=== BACKTEST SUMMARY ===")
	fmt.Fprintf(w, "Strategy: %s\n", result.StrategyName)
	fmt.Fprintf(w, "Symbol: %s\n", result.Symbol)
	fmt.Fprintf(w, "Period: %s -> %s\n",
		result.StartDate.Format("2006-01-02"), result.EndDate.Format("2006-01-02"))
	fmt.Fprintf(w, "Final Value: $%s\n", result.FinalValue.StringFixed(2))
	fmt.Fprintf(w, "Total Invested: $%s\n", result.TotalInvested.StringFixed(2))
	fmt.Fprintf(w, "Total Return: %.2f%%\n", result.TotalReturn*100)
	fmt.Fprintf(w, "Annualized Return: %.2f%%\n", result.AnnualizedReturn*100)
	fmt.Fprintf(w, "Sharpe Ratio: %.2f\n", result.SharpeRatio)
	fmt.Fprintf(w, "Max Drawdown: %.2f%%\n", result.MaxDrawdown*100)
	fmt.Fprintf(w, "Buy & Hold Value: $%s\n", result.BuyAndHoldValue.StringFixed(2))
	fmt.Fprintf(w, "Buy & Hold Return: %.2f%%\n", result.BuyAndHoldReturn*100)
	fmt.Fprintf(w, "Trades: %d (%d buys, %d sells)\n", len(result.Trades), buys, sells)
	fmt.Fprintf(w, "Contributions: %d total, %d deferred\n",
		result.TotalContributions, result.SkippedContributions)
	if result.AccumulatedCash.GreaterThan(decimal.Zero) {
		fmt.Fprintf(w, "Accumulated Cash: $%s\n", result.AccumulatedCash.StringFixed(2))
	}
	fmt.Fprintln(w, "========================")
}

// ComparisonTable writes one row per variant result plus a buy-and-hold
// baseline row taken from the first result.
func ComparisonTable(w io.Writer, results []*engine.StrategyResult) {
	if len(results) == 0 {
		return
	}

	fmt.Fprintln(w, "\n=== STRATEGY COMPARISON ===")
	fmt.Fprintf(w, "%-38s %14s %10s %12s %9s %8s %7s\n",
		"Strategy", "Final Value", "Return", "Annualized", "Max DD", "Sharpe", "Trades")
	for _, r := range results {
		fmt.Fprintf(w, "%-38s %14s %9.2f%% %11.2f%% %8.2f%% %8.2f %7d\n",
			r.StrategyName,
			"$"+r.FinalValue.StringFixed(2),
			r.TotalReturn*100,
			r.AnnualizedReturn*100,
			r.MaxDrawdown*100,
			r.SharpeRatio,
			len(r.Trades))
	}
	base := results[0]
	fmt.Fprintf(w, "%-38s %14s %9.2f%% %12s %9s %8s %7s\n",
		"Buy & Hold",
		"$"+base.BuyAndHoldValue.StringFixed(2),
		base.BuyAndHoldReturn*100,
		"-", "-", "-", "-")
	fmt.Fprintln(w, "===========================")
}

func countTrades(trades []engine.Trade) (buys, sells int) {
	for _, t := range trades {
		switch t.Type {
		case engine.TradeBuy:
			buys++
		case engine.TradeSell:
			sells++
		}
	}
	return buys, sells
}
