//! Arrow IPC export of equity curves and trade logs
//!
//! Column-oriented output for downstream analytics tools. One IPC stream per
//! table; dates travel as epoch milliseconds, money as float64.

package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"sentiment-backtest/services/engine"
)

// EquityArrow serializes the equity curve as a single Arrow IPC record batch
// with columns (date_ms, value).
func EquityArrow(result *engine.StrategyResult) ([]byte, error) {
	if len(result.EquityCurve) == 0 {
		return nil, fmt.Errorf("no equity points to convert")
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "date_ms", Type: arrow.PrimitiveTypes.Uint64},
		{Name: "value", Type: arrow.PrimitiveTypes.Float64},
	}, nil)

	pool := memory.NewGoAllocator()

	dates := make([]uint64, len(result.EquityCurve))
	values := make([]float64, len(result.EquityCurve))
	for i, point := range result.EquityCurve {
		dates[i] = uint64(point.Date.UnixMilli())
		values[i] = point.Value.InexactFloat64()
	}

	dateBuilder := array.NewUint64Builder(pool)
	dateBuilder.AppendValues(dates, nil)
	dateArray := dateBuilder.NewUint64Array()

	valueBuilder := array.NewFloat64Builder(pool)
	valueBuilder.AppendValues(values, nil)
	valueArray := valueBuilder.NewFloat64Array()

	record := array.NewRecord(schema, []arrow.Array{dateArray, valueArray},
		int64(len(result.EquityCurve)))
	defer record.Release()

	return encodeIPC(schema, record)
}

// TradesArrow serializes the trade log as a single Arrow IPC record batch with
// columns (date_ms, type, price, shares, value, reason).
func TradesArrow(result *engine.StrategyResult) ([]byte, error) {
	if len(result.Trades) == 0 {
		return nil, fmt.Errorf("no trades to convert")
	}

	schema := arrow.NewSchema([]arrow.Field{
		{Name: "date_ms", Type: arrow.PrimitiveTypes.Uint64},
		{Name: "type", Type: arrow.BinaryTypes.String},
		{Name: "price", Type: arrow.PrimitiveTypes.Float64},
		{Name: "shares", Type: arrow.PrimitiveTypes.Float64},
		{Name: "value", Type: arrow.PrimitiveTypes.Float64},
		{Name: "reason", Type: arrow.BinaryTypes.String},
	}, nil)

	pool := memory.NewGoAllocator()

	n := len(result.Trades)
	dates := make([]uint64, n)
	types := make([]string, n)
	prices := make([]float64, n)
	shares := make([]float64, n)
	values := make([]float64, n)
	reasons := make([]string, n)
	for i, trade := range result.Trades {
		dates[i] = uint64(trade.Date.UnixMilli())
		types[i] = string(trade.Type)
		prices[i] = trade.Price.InexactFloat64()
		shares[i] = trade.Shares.InexactFloat64()
		values[i] = trade.Value.InexactFloat64()
		reasons[i] = trade.Reason
	}

	dateBuilder := array.NewUint64Builder(pool)
	dateBuilder.AppendValues(dates, nil)
	dateArray := dateBuilder.NewUint64Array()

	typeBuilder := array.NewStringBuilder(pool)
	typeBuilder.AppendValues(types, nil)
	typeArray := typeBuilder.NewStringArray()

	priceBuilder := array.NewFloat64Builder(pool)
	priceBuilder.AppendValues(prices, nil)
	priceArray := priceBuilder.NewFloat64Array()

	sharesBuilder := array.NewFloat64Builder(pool)
	sharesBuilder.AppendValues(shares, nil)
	sharesArray := sharesBuilder.NewFloat64Array()

	valueBuilder := array.NewFloat64Builder(pool)
	valueBuilder.AppendValues(values, nil)
	valueArray := valueBuilder.NewFloat64Array()

	reasonBuilder := array.NewStringBuilder(pool)
	reasonBuilder.AppendValues(reasons, nil)
	reasonArray := reasonBuilder.NewStringArray()

	record := array.NewRecord(schema, []arrow.Array{
		dateArray, typeArray, priceArray, sharesArray, valueArray, reasonArray,
	}, int64(n))
	defer record.Release()

	return encodeIPC(schema, record)
}

func encodeIPC(schema *arrow.Schema, record arrow.Record) ([]byte, error) {
	var buf bytes.Buffer
	writer := ipc.NewWriter(&buf, ipc.WithSchema(schema))
	if err := writer.Write(record); err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to write Arrow record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close Arrow writer: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteArrow writes <base>_equity.arrow and <base>_trades.arrow. A result
// without trades still produces the equity file.
func WriteArrow(base string, result *engine.StrategyResult) error {
	equity, err := EquityArrow(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+"_equity.arrow", equity, 0644); err != nil {
		return fmt.Errorf("failed to write equity file: %w", err)
	}

	if len(result.Trades) == 0 {
		return nil
	}
	trades, err := TradesArrow(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(base+"_trades.arrow", trades, 0644); err != nil {
		return fmt.Errorf("failed to write trades file: %w", err)
	}
	return nil
}
