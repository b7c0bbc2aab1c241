//! Fear & Greed backtest engine types
//!
//! Core data model for the sentiment-driven simulation: externally supplied
//! price/sentiment series, the portfolio ledger mutated by the simulation
//! loop, and the aggregate result returned to callers.

package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single close observation. Series are ascending by date and
// may contain gaps of irregular size (daily, weekly, monthly, quarterly).
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// SentimentPoint is a Fear & Greed index observation, 0 (deep fear) to 100
// (deep greed). Not necessarily aligned to price dates.
type SentimentPoint struct {
	Date           time.Time `json:"date"`
	Value          int       `json:"value"`
	Classification string    `json:"classification"`
}

// TradeType distinguishes the two trade directions
type TradeType string

const (
	TradeBuy  TradeType = "buy"
	TradeSell TradeType = "sell"
)

// Trade is one executed transaction. The trade log is append-only; entries
// are never mutated after creation.
type Trade struct {
	Date   time.Time       `json:"date"`
	Type   TradeType       `json:"type"`
	Price  decimal.Decimal `json:"price"`
	Shares decimal.Decimal `json:"shares"`
	Value  decimal.Decimal `json:"value"`
	Reason string          `json:"reason"`
}

// PortfolioState is the ledger owned by the simulation loop. Cash and Shares
// never go negative; AccumulatedCash holds deferred contributions awaiting an
// extreme-fear release.
type PortfolioState struct {
	Cash                 decimal.Decimal `json:"cash"`
	Shares               decimal.Decimal `json:"shares"`
	AccumulatedCash      decimal.Decimal `json:"accumulated_cash"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	LastBuyDate          time.Time       `json:"last_buy_date"`
	LastBuyPrice         decimal.Decimal `json:"last_buy_price"`
	LastSellDate         time.Time       `json:"last_sell_date"`
	LastContributionDate time.Time       `json:"last_contribution_date"`
}

// EquityPoint is one entry of the equity curve: total portfolio value
// (cash + shares at close + accumulated cash) on a simulated day.
type EquityPoint struct {
	Date  time.Time       `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// DebugCounters is auxiliary telemetry threaded through a run. None of these
// influence control flow.
type DebugCounters struct {
	StrategyVariant    string `json:"strategy_variant"`
	ExecutedBuys       int    `json:"executed_buys"`
	ExecutedSells      int    `json:"executed_sells"`
	SkippedByCooldown  int    `json:"skipped_by_cooldown"`
	SkippedByDowntrend int    `json:"skipped_by_downtrend"`
	SentimentMisses    int    `json:"sentiment_misses"`
	ContributionEvents int    `json:"contribution_events"`
}

// StrategyResult is the aggregate output of one backtest run, immutable after
// construction.
type StrategyResult struct {
	Symbol               string          `json:"symbol"`
	StrategyName         string          `json:"strategy_name"`
	Trades               []Trade         `json:"trades"`
	FinalValue           decimal.Decimal `json:"final_value"`
	TotalReturn          float64         `json:"total_return"`
	AnnualizedReturn     float64         `json:"annualized_return"`
	SharpeRatio          float64         `json:"sharpe_ratio"`
	MaxDrawdown          float64         `json:"max_drawdown"`
	BuyAndHoldValue      decimal.Decimal `json:"buy_and_hold_value"`
	BuyAndHoldReturn     float64         `json:"buy_and_hold_return"`
	SkippedContributions int             `json:"skipped_contributions"`
	TotalContributions   int             `json:"total_contributions"`
	TotalInvested        decimal.Decimal `json:"total_invested"`
	AccumulatedCash      decimal.Decimal `json:"accumulated_cash"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	EquityCurve          []EquityPoint   `json:"equity_curve,omitempty"`
	Debug                DebugCounters   `json:"debug_info"`
}

// StrategyVariant selects the sentiment rule set for a run
type StrategyVariant string

const (
	VariantDefault         StrategyVariant = "default"
	VariantExtremeOnly     StrategyVariant = "extreme-only"
	VariantExtremeFearHold StrategyVariant = "extreme-fear-hold"
	VariantCombined        StrategyVariant = "combined"
)

// AllVariants is the canonical run order used by RunAllStrategyVariations.
var AllVariants = []StrategyVariant{
	VariantDefault,
	VariantExtremeOnly,
	VariantExtremeFearHold,
	VariantCombined,
}

// Options carries the optional knobs of RunBacktest. A zero Config is
// replaced with DefaultConfig.
type Options struct {
	Config             Config
	WeeklyContribution decimal.Decimal
	UseLumpSum         bool
	Verbose            bool
}
