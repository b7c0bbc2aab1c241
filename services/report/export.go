//! File export: trade-log CSV with summary appendix, equity-curve CSV, JSON

package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"

	"sentiment-backtest/services/engine"
)

// WriteCSV exports the trade log to filename, followed by a key/value summary
// appendix readable by spreadsheet tools.
func WriteCSV(filename string, result *engine.StrategyResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{"date", "type", "price", "shares", "value", "reason"}
	if err := writer.Write(header); err != nil {
		return err
	}

	// Write trades
	for _, trade := range result.Trades {
		record := []string{
			trade.Date.Format("2006-01-02"),
			string(trade.Type),
			trade.Price.String(),
			trade.Shares.String(),
			trade.Value.String(),
			trade.Reason,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	// Write summary
	writer.Write([]string{""}) // Empty line
	writer.Write([]string{"# Summary"})
	writer.Write([]string{"symbol", result.Symbol})
	writer.Write([]string{"strategy", result.StrategyName})
	writer.Write([]string{"final_value", result.FinalValue.String()})
	writer.Write([]string{"total_invested", result.TotalInvested.String()})
	writer.Write([]string{"total_return", fmt.Sprintf("%.6f", result.TotalReturn)})
	writer.Write([]string{"annualized_return", fmt.Sprintf("%.6f", result.AnnualizedReturn)})
	writer.Write([]string{"sharpe_ratio", fmt.Sprintf("%.6f", result.SharpeRatio)})
	writer.Write([]string{"max_drawdown", fmt.Sprintf("%.6f", result.MaxDrawdown)})
	writer.Write([]string{"buy_and_hold_value", result.BuyAndHoldValue.String()})
	writer.Write([]string{"buy_and_hold_return", fmt.Sprintf("%.6f", result.BuyAndHoldReturn)})
	writer.Write([]string{"total_contributions", fmt.Sprintf("%d", result.TotalContributions)})
	writer.Write([]string{"skipped_contributions", fmt.Sprintf("%d", result.SkippedContributions)})
	writer.Write([]string{"accumulated_cash", result.AccumulatedCash.String()})
	writer.Write([]string{"executed_buys", fmt.Sprintf("%d", result.Debug.ExecutedBuys)})
	writer.Write([]string{"executed_sells", fmt.Sprintf("%d", result.Debug.ExecutedSells)})

	return nil
}

// WriteEquityCSV exports the equity curve to filename.
func WriteEquityCSV(filename string, result *engine.StrategyResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for _, point := range result.EquityCurve {
		record := []string{point.Date.Format("2006-01-02"), point.Value.String()}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON exports the full result, equity curve included, as indented JSON.
func WriteJSON(filename string, result *engine.StrategyResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
