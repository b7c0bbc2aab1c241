//! Fear & Greed backtest CLI
//!
//! Loads a price series from CSV, ClickHouse or Postgres, pairs it with a
//! sentiment series (file, sentiment table, or derived from OHLCV), runs one
//! or all strategy variants and writes reports.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sentiment-backtest/services/config"
	"sentiment-backtest/services/engine"
	"sentiment-backtest/services/marketdata"
	"sentiment-backtest/services/report"
	"sentiment-backtest/services/sentiment"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	csvPath := flag.String("csv", "", "Price CSV path; skips database loading")
	sentPath := flag.String("sentiment", "", "Sentiment CSV path; table or OHLCV derivation when empty")
	chDSN := flag.String("ch-dsn", cfg.ClickHouseDSN, "ClickHouse native DSN")
	chDB := flag.String("ch-db", cfg.ClickHouseDB, "ClickHouse database")
	pgDSN := flag.String("pg-dsn", "", "Postgres DSN; used instead of ClickHouse when set (requires -sentiment)")
	symbol := flag.String("symbol", "SPY", "Ticker symbol")
	from := flag.String("from", "1990-01-01", "Start date (YYYY-MM-DD), database loads only")
	to := flag.String("to", "2100-01-01", "End date (YYYY-MM-DD), database loads only")
	capital := flag.Float64("capital", 10000, "Initial capital in dollars")
	weekly := flag.Float64("weekly", 500, "Weekly contribution in dollars, periodic mode")
	lump := flag.Bool("lump", false, "Deploy initial capital as a sentiment-gated lump sum")
	variantFlag := flag.String("variant", "all", "Strategy variant: all, default, extreme-only, extreme-fear-hold, combined")
	fear := flag.Int("fear", cfg.FearThreshold, "Fear threshold (buy below)")
	greed := flag.Int("greed", cfg.GreedThreshold, "Greed threshold (sell above)")
	out := flag.String("out", "", "Report base path; writes <out>_<variant>.csv/.json and Arrow files")
	natsURL := flag.String("nats-url", "", "Publish results to NATS JetStream at this URL")
	verbose := flag.Bool("verbose", false, "Per-decision logging")
	flag.Parse()

	variant := engine.StrategyVariant(*variantFlag)
	if *variantFlag != "all" {
		known := false
		for _, v := range engine.AllVariants {
			if v == variant {
				known = true
			}
		}
		if !known {
			log.Fatalf("unknown variant %q", *variantFlag)
		}
	}

	fromDate, err := marketdata.ParseDate(*from)
	if err != nil {
		log.Fatalf("bad -from date: %v", err)
	}
	toDate, err := marketdata.ParseDate(*to)
	if err != nil {
		log.Fatalf("bad -to date: %v", err)
	}

	ctx := context.Background()
	start := time.Now()

	// Price series
	var (
		prices   []engine.PricePoint
		bars     []marketdata.Bar
		chSource *marketdata.ClickHouseSource
	)
	switch {
	case *csvPath != "":
		bars, err = marketdata.LoadBars(*csvPath)
		if err != nil {
			log.Fatalf("cannot load prices: %v", err)
		}
		prices = marketdata.ToPricePoints(bars)
		if err := marketdata.Validate(*csvPath, prices); err != nil {
			log.Fatalf("data validation failed: %v", err)
		}
	case *pgDSN != "":
		src, err := marketdata.NewPostgresSource(ctx, *pgDSN)
		if err != nil {
			log.Fatalf("postgres connect failed: %v", err)
		}
		defer src.Close()
		prices, err = marketdata.Load(ctx, src, *symbol, fromDate, toDate)
		if err != nil {
			log.Fatalf("cannot load prices: %v", err)
		}
	default:
		chSource, err = marketdata.NewClickHouseSource(*chDSN, *chDB)
		if err != nil {
			log.Fatalf("clickhouse connect failed: %v", err)
		}
		defer chSource.Close()
		prices, err = marketdata.Load(ctx, chSource, *symbol, fromDate, toDate)
		if err != nil {
			log.Fatalf("cannot load prices: %v", err)
		}
	}

	// Sentiment series: explicit file first, then the sentiment table, then
	// derivation from OHLCV bars.
	var sent []engine.SentimentPoint
	switch {
	case *sentPath != "":
		sent, err = sentiment.LoadCSV(*sentPath)
		if err != nil {
			log.Fatalf("cannot load sentiment: %v", err)
		}
	case chSource != nil:
		sent, err = sentiment.LoadClickHouse(ctx, chSource.Conn(), *chDB, *symbol, fromDate, toDate)
		if err != nil {
			log.Fatalf("cannot load sentiment: %v", err)
		}
		if len(sent) == 0 {
			bars, err = chSource.Bars(ctx, *symbol, fromDate, toDate)
			if err != nil {
				log.Fatalf("cannot load bars: %v", err)
			}
			fmt.Printf("🔍 Sentiment table empty, deriving the index from %d OHLCV bars\n", len(bars))
			sent, err = sentiment.DeriveIndex(bars, sentiment.IndexOptions{})
			if err != nil {
				log.Fatalf("cannot derive sentiment index: %v", err)
			}
		}
	case len(bars) > 0:
		fmt.Printf("🔍 No sentiment file given, deriving the index from %d OHLCV bars\n", len(bars))
		sent, err = sentiment.DeriveIndex(bars, sentiment.IndexOptions{})
		if err != nil {
			log.Fatalf("cannot derive sentiment index: %v", err)
		}
	default:
		log.Fatal("no sentiment source: pass -sentiment or use a price source with OHLCV data")
	}

	engCfg := engine.Config{FearThreshold: *fear, GreedThreshold: *greed}
	opts := engine.Options{
		Config:             engCfg,
		WeeklyContribution: decimal.NewFromFloat(*weekly),
		UseLumpSum:         *lump,
		Verbose:            *verbose,
	}
	capitalDec := decimal.NewFromFloat(*capital)

	// Run
	var results []*engine.StrategyResult
	if *variantFlag == "all" {
		if *lump {
			for _, v := range engine.AllVariants {
				res, err := engine.RunBacktest(prices, sent, *symbol, capitalDec, v, opts)
				if err != nil {
					log.Fatalf("backtest failed: %v", err)
				}
				results = append(results, res)
			}
		} else {
			results, err = engine.RunAllStrategyVariations(prices, sent, *symbol,
				capitalDec, opts.WeeklyContribution, engCfg)
			if err != nil {
				log.Fatalf("backtest failed: %v", err)
			}
		}
		report.ComparisonTable(os.Stdout, results)
	} else {
		res, err := engine.RunBacktest(prices, sent, *symbol, capitalDec, variant, opts)
		if err != nil {
			log.Fatalf("backtest failed: %v", err)
		}
		results = []*engine.StrategyResult{res}
		report.Summary(os.Stdout, res)
	}

	// Export
	if *out != "" {
		for _, res := range results {
			base := fmt.Sprintf("%s_%s", *out, res.Debug.StrategyVariant)
			if err := report.WriteCSV(base+".csv", res); err != nil {
				log.Fatalf("csv export failed: %v", err)
			}
			if err := report.WriteJSON(base+".json", res); err != nil {
				log.Fatalf("json export failed: %v", err)
			}
			if err := report.WriteArrow(base, res); err != nil {
				log.Fatalf("arrow export failed: %v", err)
			}
		}
		fmt.Printf("✅ Reports written under %s_*\n", *out)
	}

	if *natsURL != "" {
		zlog, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("cannot create logger: %v", err)
		}
		pub, err := report.NewPublisher(*natsURL, zlog)
		if err != nil {
			log.Fatalf("nats connect failed: %v", err)
		}
		if err := pub.PublishAll(results); err != nil {
			pub.Close()
			log.Fatalf("publish failed: %v", err)
		}
		pub.Close()
		fmt.Printf("✅ Published %d result(s) to %s\n", len(results), *natsURL)
	}

	fmt.Printf("🏁 Completed %d run(s) in %s\n", len(results), time.Since(start).Round(time.Millisecond))
}
