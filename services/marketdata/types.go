//! Market data loading
//!
//! Price series come from CSV files, ClickHouse or Postgres. Every path
//! sorts, deduplicates and validates before the series reaches the engine.

package marketdata

import (
	"time"

	"github.com/shopspring/decimal"

	"sentiment-backtest/services/engine"
)

// Bar is one OHLCV observation. The close drives the simulation; the full
// bar feeds sentiment index derivation and the data generator.
type Bar struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume decimal.Decimal `json:"volume"`
}

// PricePoint projects the bar into the engine's input type.
func (b Bar) PricePoint() engine.PricePoint {
	return engine.PricePoint{Date: b.Date, Close: b.Close}
}

// ToPricePoints converts a bar series into the engine's close series.
func ToPricePoints(bars []Bar) []engine.PricePoint {
	points := make([]engine.PricePoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, b.PricePoint())
	}
	return points
}
