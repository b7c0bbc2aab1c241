package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"sentiment-backtest/services/engine"
)

// ClickHouseSource reads daily closes from the prices table over the native
// protocol.
type ClickHouseSource struct {
	conn     driver.Conn
	database string
}

func NewClickHouseSource(dsn, database string) (*ClickHouseSource, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse connect: %w", err)
	}
	return &ClickHouseSource{conn: conn, database: database}, nil
}

// NewClickHouseSourceFromConn wraps an existing connection.
func NewClickHouseSourceFromConn(conn driver.Conn, database string) *ClickHouseSource {
	return &ClickHouseSource{conn: conn, database: database}
}

// Conn exposes the underlying connection so callers can share it with the
// sentiment loaders.
func (s *ClickHouseSource) Conn() driver.Conn { return s.conn }

func (s *ClickHouseSource) Prices(ctx context.Context, symbol string, from, to time.Time) ([]engine.PricePoint, error) {
	q := fmt.Sprintf(`
SELECT date, toString(close)
FROM %s.prices
WHERE symbol = ? AND date BETWEEN ? AND ?
ORDER BY date`, s.database)

	rows, err := s.conn.Query(ctx, q, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.PricePoint
	for rows.Next() {
		var (
			date     time.Time
			closeStr string
		)
		if err := rows.Scan(&date, &closeStr); err != nil {
			return nil, err
		}
		close, err := decimal.NewFromString(closeStr)
		if err != nil {
			continue
		}
		out = append(out, engine.PricePoint{Date: date, Close: close})
	}
	return out, rows.Err()
}

// Bars reads full OHLCV rows, for callers that need more than closes
// (sentiment index derivation).
func (s *ClickHouseSource) Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	q := fmt.Sprintf(`
SELECT date, toString(open), toString(high), toString(low), toString(close), toString(volume)
FROM %s.prices
WHERE symbol = ? AND date BETWEEN ? AND ?
ORDER BY date`, s.database)

	rows, err := s.conn.Query(ctx, q, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Bar
	for rows.Next() {
		var (
			date          time.Time
			o, h, l, c, v string
		)
		if err := rows.Scan(&date, &o, &h, &l, &c, &v); err != nil {
			return nil, err
		}
		bar := Bar{Date: date}
		var perr error
		if bar.Open, perr = decimal.NewFromString(o); perr != nil {
			continue
		}
		if bar.High, perr = decimal.NewFromString(h); perr != nil {
			continue
		}
		if bar.Low, perr = decimal.NewFromString(l); perr != nil {
			continue
		}
		if bar.Close, perr = decimal.NewFromString(c); perr != nil {
			continue
		}
		if bar.Volume, perr = decimal.NewFromString(v); perr != nil {
			bar.Volume = decimal.Zero
		}
		out = append(out, bar)
	}
	return out, rows.Err()
}

func (s *ClickHouseSource) Close() error { return s.conn.Close() }
