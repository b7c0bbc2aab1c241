package engine

import (
	"errors"
	"fmt"
)

// ErrNoSentimentMatch reports that no sentiment point resolves for a day.
// It is recovered inside the simulation loop (the day's conditional logic is
// skipped); it never aborts a run.
var ErrNoSentimentMatch = errors.New("no sentiment match")

// NoMarketDataError is fatal: the price series for a symbol is empty.
type NoMarketDataError struct {
	Symbol string
}

func (e *NoMarketDataError) Error() string {
	return fmt.Sprintf("no market data for %s", e.Symbol)
}

// InvalidMarketDataError is fatal: a boundary record of the price series is
// structurally unusable, which indicates a malformed data collaborator.
type InvalidMarketDataError struct {
	Symbol string
	Reason string
}

func (e *InvalidMarketDataError) Error() string {
	return fmt.Sprintf("invalid market data for %s: %s", e.Symbol, e.Reason)
}
