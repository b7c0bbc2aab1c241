//! CSV to ClickHouse ingestion
//!
//! Loads price and sentiment CSVs, ensures the schema exists, and streams the
//! rows in as gzip JSONEachRow batches.

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"sentiment-backtest/services/clickhouse"
	"sentiment-backtest/services/config"
	"sentiment-backtest/services/marketdata"
	"sentiment-backtest/services/sentiment"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	csvPath := flag.String("csv", "", "Price CSV path")
	sentPath := flag.String("sentiment", "", "Sentiment CSV path (optional)")
	symbol := flag.String("symbol", "SPY", "Ticker symbol")
	chDSN := flag.String("ch-dsn", cfg.ClickHouseDSN, "ClickHouse native DSN (schema setup)")
	chURL := flag.String("ch-url", cfg.ClickHouseURL, "ClickHouse HTTP URL (batch inserts)")
	chDB := flag.String("ch-db", cfg.ClickHouseDB, "ClickHouse database")
	user := flag.String("ch-user", "backtest", "ClickHouse user")
	pass := flag.String("ch-pass", "backtest123", "ClickHouse password")
	batchSize := flag.Int("batch", 10000, "Rows per insert batch")
	flag.Parse()

	if *csvPath == "" && *sentPath == "" {
		log.Fatal("nothing to ingest: pass -csv and/or -sentiment")
	}

	ctx := context.Background()

	client, err := clickhouse.NewClient(*chDSN, *chDB)
	if err != nil {
		log.Fatalf("clickhouse connect failed: %v", err)
	}
	defer client.Close()
	if err := client.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema setup failed: %v", err)
	}
	fmt.Println("✅ Schema ready")

	now := time.Now().UTC().Format("2006-01-02 15:04:05.000")

	if *csvPath != "" {
		bars, err := marketdata.LoadBars(*csvPath)
		if err != nil {
			log.Fatalf("cannot load prices: %v", err)
		}

		writer := clickhouse.NewBatchClient(*chURL, *chDB+".prices", *batchSize)
		writer.SetBasicAuth(*user, *pass)
		for _, bar := range bars {
			row := clickhouse.PriceRow{
				Symbol:     *symbol,
				Date:       bar.Date.Format("2006-01-02"),
				Open:       bar.Open.String(),
				High:       bar.High.String(),
				Low:        bar.Low.String(),
				Close:      bar.Close.String(),
				Volume:     bar.Volume.String(),
				IngestedAt: now,
			}
			if err := writer.Add(row); err != nil {
				log.Fatalf("price insert failed: %v", err)
			}
		}
		if err := writer.Close(); err != nil {
			log.Fatalf("price flush failed: %v", err)
		}
		fmt.Printf("✅ Ingested %d price rows for %s\n", len(bars), *symbol)
	}

	if *sentPath != "" {
		points, err := sentiment.LoadCSV(*sentPath)
		if err != nil {
			log.Fatalf("cannot load sentiment: %v", err)
		}

		writer := clickhouse.NewBatchClient(*chURL, *chDB+".sentiment", *batchSize)
		writer.SetBasicAuth(*user, *pass)
		for _, p := range points {
			row := clickhouse.SentimentRow{
				Symbol:         *symbol,
				Date:           p.Date.Format("2006-01-02"),
				Value:          p.Value,
				Classification: p.Classification,
				IngestedAt:     now,
			}
			if err := writer.Add(row); err != nil {
				log.Fatalf("sentiment insert failed: %v", err)
			}
		}
		if err := writer.Close(); err != nil {
			log.Fatalf("sentiment flush failed: %v", err)
		}
		fmt.Printf("✅ Ingested %d sentiment rows for %s\n", len(points), *symbol)
	}

	fmt.Println("🎉 Ingestion complete!")
}
