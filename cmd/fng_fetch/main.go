//! Live Fear & Greed fetch
//!
//! Scrapes the published index (current value plus history) and writes it as
//! a sentiment CSV.

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"

	"sentiment-backtest/services/config"
	"sentiment-backtest/services/sentiment"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	url := flag.String("url", cfg.FngURL, "Fear & Greed graphdata URL")
	out := flag.String("out", "fear_greed_live.csv", "Sentiment CSV output path")
	flag.Parse()

	points, err := sentiment.Fetch(*url)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	latest := points[len(points)-1]
	fmt.Printf("💰 Latest index: %d (%s) on %s\n",
		latest.Value, latest.Classification, latest.Date.Format("2006-01-02"))

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
