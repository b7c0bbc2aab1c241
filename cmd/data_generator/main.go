//! Data Generator - creates sample daily OHLCV data for testing
//!
//! Generates a realistic equity price series with trending periods, weekdays
//! only, and optionally a matching derived sentiment CSV.

package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"sentiment-backtest/services/marketdata"
	"sentiment-backtest/services/sentiment"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: data_generator <output_file.csv> [days] [sentiment_file.csv]")
		fmt.Println("Example: data_generator spy_data.csv 1500 spy_sentiment.csv")
		os.Exit(1)
	}

	outputFile := os.Args[1]
	days := 1500
	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &days)
	}
	sentimentFile := ""
	if len(os.Args) > 3 {
		sentimentFile = os.Args[3]
	}

	fmt.Printf("Generating %d trading days to %s\n", days, outputFile)

	file, err := os.Create(outputFile)
	if err != nil {
		log.Fatalf("Failed to create file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{"date", "open", "high", "low", "close", "volume"}
	if err := writer.Write(header); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}

	rng := rand.New(rand.NewSource(42)) // Fixed seed for reproducibility

	// Starting price around $300
	price := 300.0
	date := time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < days; i++ {
		// Weekdays only
		for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			date = date.AddDate(0, 0, 1)
		}

		// Generate some trending periods
		trend := 0.0
		if i > 100 && i < 300 {
			trend = 0.001 // Uptrend
		} else if i > 400 && i < 600 {
			trend = -0.001 // Downtrend
		} else if i > 700 && i < 900 {
			trend = 0.0005 // Gentle uptrend
		}

		// Random walk with trend
		change := (rng.Float64()-0.5)*0.02 + trend
		price *= (1 + change)

		// Ensure price stays reasonable
		if price < 100 {
			price = 100
		}
		if price > 1000 {
			price = 1000
		}

		open := price

		// Intraday volatility
		volatility := 0.003 + rng.Float64()*0.007
		high := open * (1 + volatility*rng.Float64())
		low := open * (1 - volatility*rng.Float64())
		close := open + (high-low)*(rng.Float64()-0.5)*0.8

		// Ensure OHLC relationships are valid
		if high < open {
			high = open
		}
		if high < close {
			high = close
		}
		if low > open {
			low = open
		}
		if low > close {
			low = close
		}

		// Volume correlated with price movement
		volume := 1e6 + rng.Float64()*4e6 + math.Abs(change)*1e8

		record := []string{
			date.Format("2006-01-02"),
			decimal.NewFromFloat(open).Round(4).String(),
			decimal.NewFromFloat(high).Round(4).String(),
			decimal.NewFromFloat(low).Round(4).String(),
			decimal.NewFromFloat(close).Round(4).String(),
			decimal.NewFromFloat(volume).Round(0).String(),
		}
		if err := writer.Write(record); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}

		price = close
		date = date.AddDate(0, 0, 1)
	}
	writer.Flush()

	fmt.Printf("Generated %d trading days successfully\n", days)

	if sentimentFile == "" {
		return
	}

	// Derive the sentiment series from what was just written
	bars, err := marketdata.LoadBars(outputFile)
	if err != nil {
		log.Fatalf("Failed to reload bars: %v", err)
	}
	points, err := sentiment.DeriveIndex(bars, sentiment.IndexOptions{Jitter: true, Seed: 42})
	if err != nil {
		log.Fatalf("Failed to derive sentiment: %v", err)
	}

	sf, err := os.Create(sentimentFile)
	if err != nil {
		log.Fatalf("Failed to create sentiment file: %v", err)
	}
	defer sf.Close()

	sw := csv.NewWriter(sf)
	defer sw.Flush()

	if err := sw.Write([]string{"Date", "Fear_Greed_Index", "Sentiment"}); err != nil {
		log.Fatalf("Failed to write header: %v", err)
	}
	for _, p := range points {
		record := []string{p.Date.Format("2006-01-02"), fmt.Sprintf("%d", p.Value), p.Classification}
		if err := sw.Write(record); err != nil {
			log.Fatalf("Failed to write record: %v", err)
		}
	}

	fmt.Printf("Derived %d sentiment points to %s\n", len(points), sentimentFile)
}
