package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"sentiment-backtest/services/engine"
)

// PostgresSource reads daily closes from the prices table through a pgx
// pool.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (s *PostgresSource) Prices(ctx context.Context, symbol string, from, to time.Time) ([]engine.PricePoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT date, close::text
		FROM prices
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`,
		symbol, from, to)
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

func (s *PostgresSource) Close() { s.pool.Close() }
