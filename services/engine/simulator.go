//! Fear & Greed backtest simulation
//!
//! Walks a price series chronologically, one run per (symbol, variant,
//! deployment mode). Buys into fear, trims into greed, and tracks an
//! always-invest buy-and-hold baseline over the same series.

package engine

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

// Simulation is a single backtest run. Construct with NewSimulation, adjust
// the exported knobs, then call Run once. A Simulation must not be reused.
type Simulation struct {
	Symbol  string
	Variant StrategyVariant
	Config  Config

	InitialCapital     decimal.Decimal
	WeeklyContribution decimal.Decimal
	UseLumpSum         bool
	Verbose            bool

	// State owned by the loop
	Portfolio            PortfolioState
	Trades               []Trade
	EquityCurve          []EquityPoint
	Debug                DebugCounters
	TotalContributions   int
	SkippedContributions int

	// Buy-and-hold baseline, fed by the same injections
	HoldShares   decimal.Decimal
	HoldInvested decimal.Decimal

	cooldown  CooldownPolicy
	sentiment *SentimentIndex
}

// NewSimulation creates a run with the standard configuration: periodic mode,
// $10k capital, $500 weekly contribution, default thresholds.
func NewSimulation(symbol string, variant StrategyVariant) *Simulation {
	return &Simulation{
		Symbol:             symbol,
		Variant:            variant,
		Config:             DefaultConfig(),
		InitialCapital:     decimal.NewFromInt(10000),
		WeeklyContribution: decimal.NewFromInt(500),
		Portfolio: PortfolioState{
			Cash:            decimal.Zero,
			Shares:          decimal.Zero,
			AccumulatedCash: decimal.Zero,
			TotalInvested:   decimal.Zero,
			LastBuyPrice:    decimal.Zero,
		},
		Trades:       make([]Trade, 0, 64),
		EquityCurve:  make([]EquityPoint, 0, 256),
		Debug:        DebugCounters{StrategyVariant: string(variant)},
		HoldShares:   decimal.Zero,
		HoldInvested: decimal.Zero,
	}
}

// Run executes the simulation over the given series and builds the result.
// The price series must be non-empty with valid boundary records; those
// failures are fatal and abort the run for the symbol.
func (s *Simulation) Run(market []PricePoint, sentiment []SentimentPoint) (*StrategyResult, error) {
	if len(market) == 0 {
		return nil, &NoMarketDataError{Symbol: s.Symbol}
	}
	if err := checkBoundary(s.Symbol, market[0], "first"); err != nil {
		return nil, err
	}
	if err := checkBoundary(s.Symbol, market[len(market)-1], "last"); err != nil {
		return nil, err
	}

	s.cooldown = NewCooldownPolicy(market)
	s.sentiment = NewSentimentIndex(sentiment)

	first := market[0]
	if s.UseLumpSum {
		s.Portfolio.Cash = s.InitialCapital
		s.Portfolio.TotalInvested = s.InitialCapital
		s.HoldShares = s.InitialCapital.Div(first.Close)
		s.HoldInvested = s.InitialCapital
	}
	s.Portfolio.LastContributionDate = first.Date
	s.EquityCurve = append(s.EquityCurve, EquityPoint{Date: first.Date, Value: s.Portfolio.Cash})

	if s.Verbose {
		log.Printf("🚀 %s [%s]: %d price points, cooldown %dd buy / %dd sell, lump_sum=%v",
			s.Symbol, s.Variant, len(market), s.cooldown.BuyDays, s.cooldown.SellDays, s.UseLumpSum)
	}

	for i, p := range market {
		inDowntrend := DetectDowntrend(market, i)

		// (a) periodic contribution and baseline update
		if !s.UseLumpSum {
			s.applyContribution(p, inDowntrend)
		}

		// (b) equity curve
		s.EquityCurve = append(s.EquityCurve, EquityPoint{Date: p.Date, Value: s.portfolioValue(p.Close)})

		// (c) cooldown snapshot for the rest of the day
		inCooldown := s.cooldown.InCooldown(p.Date, &s.Portfolio)

		// (d) sentiment; a miss skips the day's conditional logic
		point, err := s.sentiment.Lookup(p.Date)
		if err != nil {
			s.Debug.SentimentMisses++
			continue
		}

		// (e) sell
		if s.Variant != VariantExtremeFearHold {
			s.evaluateSell(p, point.Value, inCooldown)
		}

		// (f) extreme-fear release of accumulated cash
		if !s.UseLumpSum {
			s.releaseAccumulated(p, point.Value, inCooldown)
		}

		// (g) lump-sum buy
		if s.UseLumpSum {
			s.evaluateLumpSumBuy(p, point.Value, inDowntrend, inCooldown)
		}
	}

	s.finalSweep(market[len(market)-1])

	result := s.buildResult(market)
	if s.Verbose {
		log.Printf("🏁 %s [%s]: final=%s invested=%s trades=%d (buys=%d sells=%d) skipped_contributions=%d",
			s.Symbol, s.Variant, result.FinalValue.StringFixed(2), result.TotalInvested.StringFixed(2),
			len(result.Trades), s.Debug.ExecutedBuys, s.Debug.ExecutedSells, s.SkippedContributions)
	}
	return result, nil
}

// applyContribution fires a contribution event once at least 7 days have
// passed since the last one. The baseline always invests; the strategy asks
// the decision rules, deferring into AccumulatedCash when they say no.
// This path deliberately ignores cooldown.
func (s *Simulation) applyContribution(p PricePoint, inDowntrend bool) {
	if daysBetween(s.Portfolio.LastContributionDate, p.Date) < 7 {
		return
	}
	s.TotalContributions++
	s.Debug.ContributionEvents++
	s.Portfolio.LastContributionDate = p.Date

	s.HoldShares = s.HoldShares.Add(s.WeeklyContribution.Div(p.Close))
	s.HoldInvested = s.HoldInvested.Add(s.WeeklyContribution)

	point, err := s.sentiment.Lookup(p.Date)
	if err != nil || !s.Config.ShouldInvest(point.Value, inDowntrend, s.Variant) {
		s.Portfolio.AccumulatedCash = s.Portfolio.AccumulatedCash.Add(s.WeeklyContribution)
		s.SkippedContributions++
		if s.Verbose {
			log.Printf("⏸️  %s deferred %s (accumulated now %s)",
				p.Date.Format("2006-01-02"), s.WeeklyContribution.StringFixed(2),
				s.Portfolio.AccumulatedCash.StringFixed(2))
		}
		return
	}

	amount := s.WeeklyContribution
	reason := fmt.Sprintf("weekly contribution at sentiment %d", point.Value)
	if s.Config.ShouldDouble(point.Value) {
		amount = amount.Mul(two)
		reason = fmt.Sprintf("doubled contribution at extreme fear (%d)", point.Value)
	}
	if point.Value <= ExtremeFearThreshold && s.Portfolio.AccumulatedCash.GreaterThan(decimal.Zero) {
		amount = amount.Add(s.Portfolio.AccumulatedCash)
		reason += " + accumulated cash"
		s.Portfolio.AccumulatedCash = decimal.Zero
	}
	s.executeBuy(p, amount, reason)
	s.Portfolio.TotalInvested = s.Portfolio.TotalInvested.Add(amount)
}

// evaluateSell trims 30% of holdings when the variant's greed rule fires,
// the portfolio is out of cooldown, and the position is up at least 10% on
// the last buy price.
func (s *Simulation) evaluateSell(p PricePoint, value int, inCooldown bool) {
	if !s.Config.ShouldSell(value, s.Variant) {
		return
	}
	if inCooldown {
		s.Debug.SkippedByCooldown++
		return
	}
	if !s.Portfolio.Shares.IsPositive() || !s.Portfolio.LastBuyPrice.IsPositive() {
		return
	}
	gain := p.Close.Sub(s.Portfolio.LastBuyPrice).Div(s.Portfolio.LastBuyPrice)
	if gain.LessThan(minSellGain) {
		return
	}

	sold := s.Portfolio.Shares.Mul(sellFraction)
	proceeds := sold.Mul(p.Close)
	s.Portfolio.Shares = s.Portfolio.Shares.Sub(sold)
	s.Portfolio.Cash = s.Portfolio.Cash.Add(proceeds)
	s.Portfolio.LastSellDate = p.Date
	s.Trades = append(s.Trades, Trade{
		Date:   p.Date,
		Type:   TradeSell,
		Price:  p.Close,
		Shares: sold,
		Value:  proceeds,
		Reason: fmt.Sprintf("trim 30%% at sentiment %d, gain %s%%", value, gain.Mul(decimal.NewFromInt(100)).StringFixed(1)),
	})
	s.Debug.ExecutedSells++
	if s.Verbose {
		log.Printf("💰 %s SELL %s shares @ %s (sentiment %d)",
			p.Date.Format("2006-01-02"), sold.StringFixed(4), p.Close.StringFixed(2), value)
	}
}

// releaseAccumulated deploys all deferred cash on an extreme-fear day,
// independent of the weekly contribution cycle.
func (s *Simulation) releaseAccumulated(p PricePoint, value int, inCooldown bool) {
	if !s.Portfolio.AccumulatedCash.IsPositive() {
		return
	}
	if value > ExtremeFearThreshold {
		return
	}
	if inCooldown {
		s.Debug.SkippedByCooldown++
		return
	}
	amount := s.Portfolio.AccumulatedCash
	s.Portfolio.AccumulatedCash = decimal.Zero
	s.executeBuy(p, amount, fmt.Sprintf("release accumulated cash at sentiment %d", value))
	s.Portfolio.TotalInvested = s.Portfolio.TotalInvested.Add(amount)
}

// evaluateLumpSumBuy deploys a sentiment-scaled slice of remaining cash.
// Unlike the weekly path this one checks cooldown, and carries its own
// downtrend gate in addition to the shared veto.
func (s *Simulation) evaluateLumpSumBuy(p PricePoint, value int, inDowntrend, inCooldown bool) {
	if !s.Config.ShouldInvest(value, inDowntrend, s.Variant) {
		return
	}
	if inCooldown {
		s.Debug.SkippedByCooldown++
		return
	}
	if !(s.Variant == VariantExtremeFearHold || !inDowntrend || value <= ExtremeFearThreshold) {
		s.Debug.SkippedByDowntrend++
		return
	}
	if !s.Portfolio.Cash.IsPositive() {
		return
	}
	alloc := s.Config.LumpSumAllocation(value)
	spend := s.Portfolio.Cash.Mul(alloc)
	if !spend.IsPositive() {
		return
	}
	s.Portfolio.Cash = s.Portfolio.Cash.Sub(spend)
	s.executeBuy(p, spend, fmt.Sprintf("lump-sum buy %s%% of cash at sentiment %d",
		alloc.Mul(decimal.NewFromInt(100)).StringFixed(0), value))
}

// executeBuy converts amount into shares at the day's close and records the
// trade. Cash adjustments happen at the call sites; contribution money never
// passes through Cash.
func (s *Simulation) executeBuy(p PricePoint, amount decimal.Decimal, reason string) {
	shares := amount.Div(p.Close)
	s.Portfolio.Shares = s.Portfolio.Shares.Add(shares)
	s.Portfolio.LastBuyDate = p.Date
	s.Portfolio.LastBuyPrice = p.Close
	s.Trades = append(s.Trades, Trade{
		Date:   p.Date,
		Type:   TradeBuy,
		Price:  p.Close,
		Shares: shares,
		Value:  amount,
		Reason: reason,
	})
	s.Debug.ExecutedBuys++
	if s.Verbose {
		log.Printf("✅ %s BUY %s shares @ %s (%s)",
			p.Date.Format("2006-01-02"), shares.StringFixed(4), p.Close.StringFixed(2), reason)
	}
}

// finalSweep deploys any leftover cash at the last price, regardless of
// sentiment or cooldown. Accumulated cash is not swept; it stays a separate
// component of final value.
func (s *Simulation) finalSweep(last PricePoint) {
	if !s.Portfolio.Cash.IsPositive() {
		return
	}
	spend := s.Portfolio.Cash
	s.Portfolio.Cash = decimal.Zero
	s.executeBuy(last, spend, "final deployment of remaining cash")
}

// portfolioValue is cash + shares at the given close + accumulated cash.
func (s *Simulation) portfolioValue(close decimal.Decimal) decimal.Decimal {
	return s.Portfolio.Cash.Add(s.Portfolio.Shares.Mul(close)).Add(s.Portfolio.AccumulatedCash)
}

func checkBoundary(symbol string, p PricePoint, which string) error {
	if p.Date.IsZero() {
		return &InvalidMarketDataError{Symbol: symbol, Reason: which + " point has no date"}
	}
	if !p.Close.IsPositive() {
		return &InvalidMarketDataError{Symbol: symbol, Reason: which + " point has non-positive close"}
	}
	return nil
}

// RunBacktest runs one simulation with the given parameters. A zero
// opts.Config falls back to DefaultConfig; a non-positive weekly
// contribution keeps the constructor default.
func RunBacktest(market []PricePoint, sentiment []SentimentPoint, symbol string,
	initialCapital decimal.Decimal, variant StrategyVariant, opts Options) (*StrategyResult, error) {

	sim := NewSimulation(symbol, variant)
	if opts.Config != (Config{}) {
		sim.Config = opts.Config
	}
	if initialCapital.IsPositive() {
		sim.InitialCapital = initialCapital
	}
	if opts.WeeklyContribution.IsPositive() {
		sim.WeeklyContribution = opts.WeeklyContribution
	}
	sim.UseLumpSum = opts.UseLumpSum
	sim.Verbose = opts.Verbose
	return sim.Run(market, sentiment)
}

// RunAllStrategyVariations runs the four variants in their canonical order,
// each in periodic mode with the same fixed contribution.
func RunAllStrategyVariations(market []PricePoint, sentiment []SentimentPoint, symbol string,
	initialCapital, weeklyContribution decimal.Decimal, cfg Config) ([]*StrategyResult, error) {

	results := make([]*StrategyResult, 0, len(AllVariants))
	for _, variant := range AllVariants {
		res, err := RunBacktest(market, sentiment, symbol, initialCapital, variant, Options{
			Config:             cfg,
			WeeklyContribution: weeklyContribution,
		})
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}
