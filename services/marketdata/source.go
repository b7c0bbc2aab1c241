package marketdata

import (
	"context"
	"fmt"
	"sort"
	"time"

	"sentiment-backtest/services/engine"
)

// Source supplies a close-price series for a symbol over a date window.
type Source interface {
	Prices(ctx context.Context, symbol string, from, to time.Time) ([]engine.PricePoint, error)
}

// Load pulls a series from src, then sorts, deduplicates and validates it
// the same way the CSV path does.
func Load(ctx context.Context, src Source, symbol string, from, to time.Time) ([]engine.PricePoint, error) {
	points, err := src.Prices(ctx, symbol, from, to)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}

	if len(points) > 1 {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		uniq := make([]engine.PricePoint, 0, len(points))
		for _, p := range points {
			if len(uniq) > 0 && p.Date.Equal(uniq[len(uniq)-1].Date) {
				uniq[len(uniq)-1] = p
				continue
			}
			uniq = append(uniq, p)
		}
		points = uniq
	}

	if err := Validate(symbol, points); err != nil {
		return nil, fmt.Errorf("data validation failed: %w", err)
	}
	return points, nil
}
