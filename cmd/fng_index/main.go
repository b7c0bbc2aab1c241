//! Fear & Greed index derivation tool
//!
//! Computes the composite sentiment index from an OHLCV CSV and writes it in
//! the same layout the sentiment loader reads back.

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"

	"sentiment-backtest/services/marketdata"
	"sentiment-backtest/services/sentiment"
)

func main() {
	in := flag.String("in", "", "OHLCV CSV input path")
	out := flag.String("out", "fear_greed_index.csv", "Sentiment CSV output path")
	jitter := flag.Bool("jitter", false, "Add seeded noise to the smoothed index")
	seed := flag.Int64("seed", 42, "Noise seed, only used with -jitter")
	flag.Parse()

	if *in == "" {
		fmt.Println("Usage: fng_index -in prices.csv [-out fear_greed_index.csv] [-jitter] [-seed N]")
		os.Exit(1)
	}

	bars, err := marketdata.LoadBars(*in)
	if err != nil {
		log.Fatalf("cannot load bars: %v", err)
	}

	points, err := sentiment.DeriveIndex(bars, sentiment.IndexOptions{Jitter: *jitter, Seed: *seed})
	if err != nil {
		log.Fatalf("cannot derive index: %v", err)
	}

	file, err := os.Create(*out)
	if err != nil {
		log.Fatalf("failed to create file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"Date", "Fear_Greed_Index", "Sentiment"}); err != nil {
		log.Fatalf("failed to write header: %v", err)
	}
	for _, p := range points {
		record := []string{
			p.Date.Format("2006-01-02"),
			fmt.Sprintf("%d", p.Value),
			p.Classification,
		}
		if err := writer.Write(record); err != nil {
			log.Fatalf("failed to write record: %v", err)
		}
	}

	fmt.Printf("✅ Wrote %d sentiment points to %s\n", len(points), *out)
}
