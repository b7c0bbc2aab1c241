package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentiment-backtest/services/engine"
)

func readAllCSV(t *testing.T, path string) [][]string {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSVTradesAndSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, WriteCSV(path, sampleResult()))

	records := readAllCSV(t, path)
	require.Greater(t, len(records), 4)

	assert.Equal(t, []string{"date", "type", "price", "shares", "value", "reason"}, records[0])
	assert.Equal(t, []string{"2020-01-02", "buy", "100", "10", "1000", "Extreme fear (25)"}, records[1])
	assert.Equal(t, []string{"2020-02-02", "sell", "120", "3", "360", "Extreme greed (88)"}, records[2])

	// The blank spacer row reads back as nothing, so the marker follows the trades.
	assert.Equal(t, []string{"# Summary"}, records[3])

	kv := map[string]string{}
	for _, record := range records[4:] {
		if len(record) == 2 {
			kv[record[0]] = record[1]
		}
	}
	assert.Equal(t, "SPY", kv["symbol"])
	assert.Equal(t, "1234.56", kv["final_value"])
	assert.Equal(t, "0.234500", kv["total_return"])
	assert.Equal(t, "10", kv["total_contributions"])
	assert.Equal(t, "3", kv["skipped_contributions"])
	assert.Equal(t, "1", kv["executed_sells"])
}

func TestWriteCSVBadPath(t *testing.T) {
	err := WriteCSV(filepath.Join(t.TempDir(), "missing", "trades.csv"), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create file")
}

func TestWriteEquityCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equity.csv")
	require.NoError(t, WriteEquityCSV(path, sampleResult()))

	records := readAllCSV(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"date", "value"}, records[0])
	assert.Equal(t, []string{"2020-01-03", "1010.5"}, records[2])
}

func TestWriteJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	original := sampleResult()
	require.NoError(t, WriteJSON(path, original))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded engine.StrategyResult
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.Symbol, decoded.Symbol)
	assert.Equal(t, original.StrategyName, decoded.StrategyName)
	assert.True(t, original.FinalValue.Equal(decoded.FinalValue))
	assert.Len(t, decoded.Trades, 2)
	assert.Len(t, decoded.EquityCurve, 3)
	assert.Equal(t, original.Debug.StrategyVariant, decoded.Debug.StrategyVariant)
}
