// Package main implements the backtest service with REST, gRPC and websocket
// progress streaming over the Fear & Greed simulation engine.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	pb "sentiment-backtest/proto"
	"sentiment-backtest/services/clickhouse"
	"sentiment-backtest/services/config"
	"sentiment-backtest/services/engine"
	"sentiment-backtest/services/marketdata"
	"sentiment-backtest/services/report"
	"sentiment-backtest/services/sentiment"
)

// BacktestService implements the gRPC service and the REST handlers.
type BacktestService struct {
	pb.UnimplementedBacktestServiceServer
	logger    *zap.Logger
	config    config.Config
	ch        *clickhouse.Client
	source    *marketdata.ClickHouseSource
	jobs      *jobStore
	publisher *report.Publisher
	results   *clickhouse.BatchClient
	resultsMu sync.Mutex
	upgrader  websocket.Upgrader
}

// NewBacktestService wires the data layer, the result sinks and the job store.
func NewBacktestService(cfg config.Config, logger *zap.Logger) (*BacktestService, error) {
	ch, err := clickhouse.NewClient(cfg.ClickHouseDSN, cfg.ClickHouseDB)
	if err != nil {
		return nil, fmt.Errorf("failed to create ClickHouse client: %w", err)
	}
	if err := ch.EnsureSchema(context.Background()); err != nil {
		logger.Warn("schema setup failed, continuing", zap.Error(err))
	}

	svc := &BacktestService{
		logger:  logger,
		config:  cfg,
		ch:      ch,
		source:  marketdata.NewClickHouseSourceFromConn(ch.Conn(), cfg.ClickHouseDB),
		jobs:    newJobStore(),
		results: clickhouse.NewBatchClient(cfg.ClickHouseURL, cfg.ClickHouseDB+".results", 64),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	pub, err := report.NewPublisher(cfg.NatsURL, logger)
	if err != nil {
		logger.Warn("NATS unavailable, result publishing disabled", zap.Error(err))
	} else {
		svc.publisher = pub
	}
	return svc, nil
}

// Close flushes the result sink and drops all connections.
func (s *BacktestService) Close() {
	if s.publisher != nil {
		s.publisher.Close()
	}
	if err := s.results.Close(); err != nil {
		s.logger.Warn("result flush failed", zap.Error(err))
	}
	s.ch.Close()
}

// RunBacktest implements the gRPC method: synchronous execution, full
// response.
func (s *BacktestService) RunBacktest(ctx context.Context, req *pb.RunRequest) (*pb.RunResponse, error) {
	if req.Symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	started := time.Now()
	j := s.jobs.create(req.Symbol)
	s.jobs.setRunning(j.ID)

	s.logger.Info("starting backtest",
		zap.String("job_id", j.ID),
		zap.String("symbol", req.Symbol),
		zap.Int("variants", len(requestVariants(req))),
	)

	results, err := s.execute(ctx, j, req)
	if err != nil {
		s.jobs.finish(j.ID, nil, err)
		return nil, err
	}
	s.persistResults(j.ID, results)
	s.publishResults(results)
	s.jobs.finish(j.ID, results, nil)

	s.logger.Info("backtest completed",
		zap.String("job_id", j.ID),
		zap.Duration("execution_time", time.Since(started)),
	)

	resp := &pb.RunResponse{
		JobId:         j.ID,
		Symbol:        req.Symbol,
		ExecutionTime: time.Since(started).Milliseconds(),
		Results:       make([]*pb.VariantResult, len(results)),
	}
	for i, res := range results {
		resp.Results[i] = toVariantResult(res)
	}
	return resp, nil
}

// runJob is the asynchronous REST path.
func (s *BacktestService) runJob(j *job, req *pb.RunRequest) {
	started := time.Now()
	s.jobs.setRunning(j.ID)
	s.jobs.notify(j.ID, progressEvent{JobID: j.ID, Status: jobRunning})

	results, err := s.execute(context.Background(), j, req)
	if err != nil {
		s.logger.Error("backtest job failed", zap.String("job_id", j.ID), zap.Error(err))
		s.jobs.finish(j.ID, nil, err)
		return
	}

	s.persistResults(j.ID, results)
	s.publishResults(results)

	s.logger.Info("backtest job completed",
		zap.String("job_id", j.ID),
		zap.Duration("execution_time", time.Since(started)),
		zap.Int("variants", len(results)),
	)
	s.jobs.finish(j.ID, results, nil)
}

// execute loads the series and fans the requested variants out over a worker
// pool, then restores the canonical variant order the pool loses.
func (s *BacktestService) execute(ctx context.Context, j *job, req *pb.RunRequest) ([]*engine.StrategyResult, error) {
	from, to := requestRange(req)
	prices, sent, err := s.loadSeries(ctx, req.Symbol, from, to)
	if err != nil {
		return nil, err
	}

	variants := requestVariants(req)
	capital, weekly := requestAmounts(req)
	engCfg := s.engineConfig(req)

	numWorkers := runtime.NumCPU()
	if numWorkers > len(variants) {
		numWorkers = len(variants)
	}

	variantChan := make(chan engine.StrategyVariant, len(variants))
	resultChan := make(chan *engine.StrategyResult, len(variants))
	errorChan := make(chan error, len(variants))

	var wg sync.WaitGroup
	var done int32
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for variant := range variantChan {
				s.logger.Debug("worker running variant",
					zap.Int("worker_id", workerID),
					zap.String("variant", string(variant)),
				)
				res, err := engine.RunBacktest(prices, sent, req.Symbol, capital, variant, engine.Options{
					Config:             engCfg,
					WeeklyContribution: weekly,
					UseLumpSum:         req.UseLumpSum,
				})
				if err != nil {
					errorChan <- fmt.Errorf("variant %s: %w", variant, err)
					continue
				}
				n := int(atomic.AddInt32(&done, 1))
				s.jobs.notify(j.ID, progressEvent{
					JobID:   j.ID,
					Status:  jobRunning,
					Variant: string(variant),
					Done:    n,
					Total:   len(variants),
				})
				resultChan <- res
			}
		}(i)
	}

	for _, v := range variants {
		variantChan <- v
	}
	close(variantChan)

	wg.Wait()
	close(resultChan)
	close(errorChan)

	var results []*engine.StrategyResult
	for res := range resultChan {
		results = append(results, res)
	}
	for err := range errorChan {
		return nil, err
	}

	ordered := make([]*engine.StrategyResult, 0, len(results))
	for _, v := range variants {
		for _, res := range results {
			if res.Debug.StrategyVariant == string(v) {
				ordered = append(ordered, res)
				break
			}
		}
	}
	return ordered, nil
}

// loadSeries reads prices and sentiment from ClickHouse; an empty sentiment
// table falls back to deriving the index from OHLCV bars.
func (s *BacktestService) loadSeries(ctx context.Context, symbol string, from, to time.Time) ([]engine.PricePoint, []engine.SentimentPoint, error) {
	prices, err := marketdata.Load(ctx, s.source, symbol, from, to)
	if err != nil {
		return nil, nil, err
	}

	sent, err := sentiment.LoadClickHouse(ctx, s.ch.Conn(), s.ch.Database(), symbol, from, to)
	if err != nil {
		return nil, nil, err
	}
	if len(sent) == 0 {
		bars, err := s.source.Bars(ctx, symbol, from, to)
		if err != nil {
			return nil, nil, err
		}
		sent, err = sentiment.DeriveIndex(bars, sentiment.IndexOptions{})
		if err != nil {
			return nil, nil, fmt.Errorf("no sentiment rows and derivation failed: %w", err)
		}
		s.logger.Info("derived sentiment index from OHLCV",
			zap.String("symbol", symbol),
			zap.Int("points", len(sent)),
		)
	}
	return prices, sent, nil
}

func (s *BacktestService) persistResults(runID string, results []*engine.StrategyResult) {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	now := time.Now().UTC().Format("2006-01-02 15:04:05.000")
	for _, res := range results {
		payload, err := json.Marshal(res)
		if err != nil {
			continue
		}
		row := clickhouse.ResultRow{
			RunID:           runID,
			Symbol:          res.Symbol,
			StrategyVariant: res.Debug.StrategyVariant,
			Payload:         string(payload),
			CreatedAt:       now,
		}
		if err := s.results.Add(row); err != nil {
			s.logger.Warn("result persistence failed", zap.Error(err))
			return
		}
	}
	if err := s.results.Flush(); err != nil {
		s.logger.Warn("result flush failed", zap.Error(err))
	}
}

func (s *BacktestService) publishResults(results []*engine.StrategyResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAll(results); err != nil {
		s.logger.Warn("result publishing failed", zap.Error(err))
	}
}

// Request helpers

func requestVariants(req *pb.RunRequest) []engine.StrategyVariant {
	switch req.Variant {
	case pb.Variant_DEFAULT:
		return []engine.StrategyVariant{engine.VariantDefault}
	case pb.Variant_EXTREME_ONLY:
		return []engine.StrategyVariant{engine.VariantExtremeOnly}
	case pb.Variant_EXTREME_FEAR_HOLD:
		return []engine.StrategyVariant{engine.VariantExtremeFearHold}
	case pb.Variant_COMBINED:
		return []engine.StrategyVariant{engine.VariantCombined}
	default:
		return engine.AllVariants
	}
}

func requestRange(req *pb.RunRequest) (time.Time, time.Time) {
	from := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	if req.StartDate > 0 {
		from = time.UnixMilli(req.StartDate).UTC()
	}
	if req.EndDate > 0 {
		to = time.UnixMilli(req.EndDate).UTC()
	}
	return from, to
}

// requestAmounts parses the dollar fields; empty or invalid strings leave the
// engine defaults in charge.
func requestAmounts(req *pb.RunRequest) (capital, weekly decimal.Decimal) {
	capital, _ = decimal.NewFromString(req.InitialCapital)
	weekly, _ = decimal.NewFromString(req.WeeklyContribution)
	return capital, weekly
}

func (s *BacktestService) engineConfig(req *pb.RunRequest) engine.Config {
	if req.FearThreshold > 0 && req.GreedThreshold > 0 {
		return engine.Config{
			FearThreshold:  int(req.FearThreshold),
			GreedThreshold: int(req.GreedThreshold),
		}
	}
	return s.config.EngineConfig()
}

// Response conversion

func toVariantResult(res *engine.StrategyResult) *pb.VariantResult {
	return &pb.VariantResult{
		StrategyName:         res.StrategyName,
		Variant:              res.Debug.StrategyVariant,
		FinalValue:           res.FinalValue.String(),
		TotalReturn:          res.TotalReturn,
		AnnualizedReturn:     res.AnnualizedReturn,
		SharpeRatio:          res.SharpeRatio,
		MaxDrawdown:          res.MaxDrawdown,
		BuyAndHoldValue:      res.BuyAndHoldValue.String(),
		BuyAndHoldReturn:     res.BuyAndHoldReturn,
		TotalInvested:        res.TotalInvested.String(),
		AccumulatedCash:      res.AccumulatedCash.String(),
		TotalContributions:   int32(res.TotalContributions),
		SkippedContributions: int32(res.SkippedContributions),
		Trades:               toTrades(res.Trades),
		EquityCurve:          toEquityCurve(res.EquityCurve),
	}
}

func toTrades(trades []engine.Trade) []*pb.Trade {
	out := make([]*pb.Trade, len(trades))
	for i, t := range trades {
		out[i] = &pb.Trade{
			Timestamp: t.Date.UnixMilli(),
			Side:      toTradeSide(t.Type),
			Price:     t.Price.String(),
			Shares:    t.Shares.String(),
			Value:     t.Value.String(),
			Reason:    t.Reason,
		}
	}
	return out
}

func toEquityCurve(curve []engine.EquityPoint) []*pb.EquityPoint {
	out := make([]*pb.EquityPoint, len(curve))
	for i, p := range curve {
		out[i] = &pb.EquityPoint{Timestamp: p.Date.UnixMilli(), Value: p.Value.String()}
	}
	return out
}

func toTradeSide(t engine.TradeType) pb.TradeSide {
	if t == engine.TradeSell {
		return pb.TradeSide_SELL
	}
	return pb.TradeSide_BUY
}

// HTTP handlers

func (s *BacktestService) setupHTTPRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	api.GET("/health", s.handleHealthCheck)

	protected := api.Group("")
	if s.config.APITokenHash != "" {
		protected.Use(s.authMiddleware())
	}
	protected.POST("/backtest", s.handleBacktestRequest)
	protected.GET("/jobs/:job_id", s.handleGetJob)
	protected.GET("/jobs/:job_id/ws", s.handleJobProgress)
}

func (s *BacktestService) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" ||
			bcrypt.CompareHashAndPassword([]byte(s.config.APITokenHash), []byte(token)) != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Next()
	}
}

func (s *BacktestService) handleBacktestRequest(c *gin.Context) {
	var req pb.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}

	j := s.jobs.create(req.Symbol)
	go s.runJob(j, &req)

	c.JSON(http.StatusAccepted, gin.H{"job_id": j.ID, "status": jobQueued})
}

func (s *BacktestService) handleGetJob(c *gin.Context) {
	snap, ok := s.jobs.snapshot(c.Param("job_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *BacktestService) handleHealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   "1.0.0",
	})
}

// handleJobProgress upgrades to a websocket and streams progress events until
// the job finishes or the client goes away.
func (s *BacktestService) handleJobProgress(c *gin.Context) {
	jobID := c.Param("job_id")
	snap, ok := s.jobs.snapshot(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown job"})
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := s.jobs.subscribe(jobID)
	defer cancel()

	conn.WriteJSON(progressEvent{JobID: jobID, Status: snap.Status})
	for ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
	if final, ok := s.jobs.snapshot(jobID); ok {
		conn.WriteJSON(progressEvent{JobID: jobID, Status: final.Status, Error: final.Error})
	}
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var logger *zap.Logger
	if cfg.LogLevel == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting backtest service",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("grpc_addr", cfg.GRPCAddr),
	)

	service, err := NewBacktestService(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create backtest service", zap.Error(err))
	}

	grpcServer := grpc.NewServer()
	pb.RegisterBacktestServiceServer(grpcServer, service)
	reflection.Register(grpcServer)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	service.setupHTTPRoutes(router)

	go func() {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			logger.Fatal("failed to listen on gRPC addr", zap.Error(err))
		}
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := router.Run(cfg.HTTPAddr); err != nil {
			logger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down servers...")
	grpcServer.GracefulStop()
	service.Close()
	logger.Info("servers stopped")
}
