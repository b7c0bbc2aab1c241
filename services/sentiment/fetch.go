package sentiment

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/gocolly/colly/v2"

	"sentiment-backtest/services/engine"
)

// graphdata payload of the CNN production endpoint
type fngPayload struct {
	FearAndGreed struct {
		Score  float64 `json:"score"`
		Rating string  `json:"rating"`
	} `json:"fear_and_greed"`
	FearAndGreedHistorical struct {
		Data []struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
		} `json:"data"`
	} `json:"fear_and_greed_historical"`
}

// Fetch scrapes the historical Fear & Greed series from url. The endpoint
// rejects default Go user agents, so the collector presents a browser one.
func Fetch(url string) ([]engine.SentimentPoint, error) {
	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"),
	)
	c.SetRequestTimeout(20 * time.Second)

	var payload fngPayload
	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		if err := json.Unmarshal(r.Body, &payload); err != nil {
			fetchErr = fmt.Errorf("decode graphdata: %w", err)
		}
	})
	c.OnError(func(_ *colly.Response, err error) {
		fetchErr = fmt.Errorf("fetch %s: %w", url, err)
	})

	if err := c.Visit(url); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if fetchErr != nil {
		return nil, fetchErr
	}

	data := payload.FearAndGreedHistorical.Data
	points := make([]engine.SentimentPoint, 0, len(data))
	for _, d := range data {
		value := int(math.Round(d.Y))
		if value < 0 || value > 100 {
			continue
		}
		points = append(points, engine.SentimentPoint{
			Date:           time.UnixMilli(int64(d.X)).UTC(),
			Value:          value,
			Classification: Classify(value),
		})
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no sentiment data in response from %s", url)
	}
	return points, nil
}
