package proto

import "context"

type RunRequest struct {
	Symbol             string  `json:"symbol"`
	StartDate          int64   `json:"start_date"`
	EndDate            int64   `json:"end_date"`
	InitialCapital     string  `json:"initial_capital"`
	WeeklyContribution string  `json:"weekly_contribution"`
	UseLumpSum         bool    `json:"use_lump_sum"`
	FearThreshold      int32   `json:"fear_threshold"`
	GreedThreshold     int32   `json:"greed_threshold"`
	Variant            Variant `json:"variant"`
}

type Variant int32

const (
	Variant_ALL               Variant = 0
	Variant_DEFAULT           Variant = 1
	Variant_EXTREME_ONLY      Variant = 2
	Variant_EXTREME_FEAR_HOLD Variant = 3
	Variant_COMBINED          Variant = 4
)

type TradeSide int32

const (
	TradeSide_BUY  TradeSide = 0
	TradeSide_SELL TradeSide = 1
)

type Trade struct {
	Timestamp int64
	Side      TradeSide
	Price     string
	Shares    string
	Value     string
	Reason    string
}

type EquityPoint struct {
	Timestamp int64
	Value     string
}

type VariantResult struct {
	StrategyName         string
	Variant              string
	FinalValue           string
	TotalReturn          float64
	AnnualizedReturn     float64
	SharpeRatio          float64
	MaxDrawdown          float64
	BuyAndHoldValue      string
	BuyAndHoldReturn     float64
	TotalInvested        string
	AccumulatedCash      string
	TotalContributions   int32
	SkippedContributions int32
	Trades               []*Trade
	EquityCurve          []*EquityPoint
}

type RunResponse struct {
	JobId         string
	Symbol        string
	ExecutionTime int64
	Results       []*VariantResult
}

// gRPC server interface stub

type UnimplementedBacktestServiceServer struct{}

func RegisterBacktestServiceServer(_ any, _ BacktestServiceServer) {}

type BacktestServiceServer interface {
	RunBacktest(context.Context, *RunRequest) (*RunResponse, error)
}
