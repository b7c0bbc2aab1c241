package sentiment

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"sentiment-backtest/services/engine"
)

// LoadClickHouse reads a sentiment series from the sentiment table over an
// open native connection.
func LoadClickHouse(ctx context.Context, conn driver.Conn, database, symbol string, from, to time.Time) ([]engine.SentimentPoint, error) {
	q := fmt.Sprintf(`
SELECT date, value, classification
FROM %s.sentiment
WHERE symbol = ? AND date BETWEEN ? AND ?
ORDER BY date`, database)

	rows, err := conn.Query(ctx, q, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("sentiment query: %w", err)
	}
	defer rows.Close()

	var out []engine.SentimentPoint
	for rows.Next() {
		var (
			date           time.Time
			value          int32
			classification string
		)
		if err := rows.Scan(&date, &value, &classification); err != nil {
			return nil, err
		}
		if classification == "" {
			classification = Classify(int(value))
		}
		out = append(out, engine.SentimentPoint{
			Date:           date,
			Value:          int(value),
			Classification: classification,
		})
	}
	return out, rows.Err()
}
