package clickhouse

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedInsert struct {
	query string
	rows  []map[string]any
	auth  bool
}

func newCaptureServer(t *testing.T, captured *[]capturedInsert) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip", r.Header.Get("Content-Encoding"))

		gz, err := gzip.NewReader(r.Body)
		require.NoError(t, err)
		defer gz.Close()

		var rows []map[string]any
		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			var row map[string]any
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
			rows = append(rows, row)
		}
		require.NoError(t, scanner.Err())

		user, pass, ok := r.BasicAuth()
		*captured = append(*captured, capturedInsert{
			query: r.URL.Query().Get("query"),
			rows:  rows,
			auth:  ok && user == "backtest" && pass == "backtest123",
		})
		w.WriteHeader(http.StatusOK)
	}))
}

func TestBatchClientFlushesAtBatchSize(t *testing.T) {
	var captured []capturedInsert
	srv := newCaptureServer(t, &captured)
	defer srv.Close()

	c := NewBatchClient(srv.URL, "backtest.prices", 2)
	require.NoError(t, c.Add(PriceRow{Symbol: "SPY", Date: "2024-01-02", Close: "101.5"}))
	assert.Empty(t, captured, "below batch size, nothing sent yet")

	require.NoError(t, c.Add(PriceRow{Symbol: "SPY", Date: "2024-01-03", Close: "102"}))
	require.Len(t, captured, 1, "second row triggers the flush")

	assert.Contains(t, captured[0].query, "INSERT INTO backtest.prices FORMAT JSONEachRow")
	assert.True(t, captured[0].auth)
	require.Len(t, captured[0].rows, 2)
	assert.Equal(t, "SPY", captured[0].rows[0]["symbol"])
	assert.Equal(t, "101.5", captured[0].rows[0]["close"])
}

func TestBatchClientCloseFlushesRemainder(t *testing.T) {
	var captured []capturedInsert
	srv := newCaptureServer(t, &captured)
	defer srv.Close()

	c := NewBatchClient(srv.URL, "backtest.sentiment", 100)
	require.NoError(t, c.Add(SentimentRow{Symbol: "SPY", Date: "2024-01-02", Value: 35, Classification: "Fear"}))
	require.NoError(t, c.Close())

	require.Len(t, captured, 1)
	require.Len(t, captured[0].rows, 1)
	assert.Equal(t, float64(35), captured[0].rows[0]["value"])
}

func TestBatchClientEmptyFlushSendsNothing(t *testing.T) {
	var captured []capturedInsert
	srv := newCaptureServer(t, &captured)
	defer srv.Close()

	c := NewBatchClient(srv.URL, "backtest.prices", 10)
	require.NoError(t, c.Flush())
	require.NoError(t, c.Close())
	assert.Empty(t, captured)
}

func TestBatchClientSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Code: 60. DB::Exception: Table missing", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewBatchClient(srv.URL, "backtest.results", 1)
	err := c.Add(ResultRow{RunID: "r1", Symbol: "SPY"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clickhouse error 500")
}
