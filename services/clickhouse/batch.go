package clickhouse

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// PriceRow is one JSONEachRow line of the prices table. Decimals travel as
// strings; ClickHouse casts on insert.
type PriceRow struct {
	Symbol     string `json:"symbol"`
	Date       string `json:"date"`
	Open       string `json:"open"`
	High       string `json:"high"`
	Low        string `json:"low"`
	Close      string `json:"close"`
	Volume     string `json:"volume"`
	IngestedAt string `json:"ingested_at"`
}

// SentimentRow is one JSONEachRow line of the sentiment table.
type SentimentRow struct {
	Symbol         string `json:"symbol"`
	Date           string `json:"date"`
	Value          int    `json:"value"`
	Classification string `json:"classification"`
	IngestedAt     string `json:"ingested_at"`
}

// ResultRow is one JSONEachRow line of the results table; the payload is
// the JSON-encoded StrategyResult.
type ResultRow struct {
	RunID           string `json:"run_id"`
	Symbol          string `json:"symbol"`
	StrategyVariant string `json:"strategy_variant"`
	Payload         string `json:"payload"`
	CreatedAt       string `json:"created_at"`
}

// BatchClient handles ClickHouse HTTP batch inserts with compression. One
// client serves one target table; rows buffer until batchSize and flush as
// a single gzip JSONEachRow POST.
type BatchClient struct {
	baseURL    string
	table      string
	username   string
	password   string
	httpClient *http.Client
	buffer     []any
	batchSize  int
}

// NewBatchClient creates a writer for the fully qualified table, e.g.
// "backtest.prices".
func NewBatchClient(baseURL, table string, batchSize int) *BatchClient {
	return &BatchClient{
		baseURL:   baseURL,
		table:     table,
		username:  "backtest",
		password:  "backtest123",
		batchSize: batchSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		buffer: make([]any, 0, batchSize),
	}
}

// SetBasicAuth overrides the default credentials.
func (c *BatchClient) SetBasicAuth(username, password string) {
	c.username, c.password = username, password
}

func (c *BatchClient) Add(row any) error {
	c.buffer = append(c.buffer, row)
	if len(c.buffer) >= c.batchSize {
		return c.Flush()
	}
	return nil
}

func (c *BatchClient) Flush() error {
	if len(c.buffer) == 0 {
		return nil
	}

	// Convert to JSONEachRow format (one JSON object per line)
	var buf bytes.Buffer
	gzWriter := gzip.NewWriter(&buf)

	for _, row := range c.buffer {
		jsonData, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		if _, err := gzWriter.Write(jsonData); err != nil {
			return fmt.Errorf("gzip error: %w", err)
		}
		if _, err := gzWriter.Write([]byte("\n")); err != nil {
			return fmt.Errorf("gzip error: %w", err)
		}
	}
	gzWriter.Close()

	// HTTP POST to ClickHouse with CH-friendly settings
	query := fmt.Sprintf("INSERT INTO %s FORMAT JSONEachRow", c.table)
	settings := "input_format_null_as_default=1&date_time_input_format=best_effort"
	url := fmt.Sprintf("%s/?query=%s&%s", c.baseURL, url.QueryEscape(query), settings)
	req, err := http.NewRequestWithContext(context.Background(), "POST", url, &buf)
	if err != nil {
		return fmt.Errorf("request error: %w", err)
	}

	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Content-Encoding", "gzip")
	req.SetBasicAuth(c.username, c.password)
	req.Header.Set("X-ClickHouse-Settings", "max_insert_block_size=1000000,input_format_allow_errors_num=0,insert_deduplicate=1")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("clickhouse error %d: %s", resp.StatusCode, string(body))
	}

	// Clear buffer
	c.buffer = c.buffer[:0]
	return nil
}

func (c *BatchClient) Close() error {
	return c.Flush()
}
