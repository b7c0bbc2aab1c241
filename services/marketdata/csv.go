package marketdata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sentiment-backtest/services/engine"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
}

// ParseDate tries the known layouts in order.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// decodedReader wraps f with a UTF-16 decoder when the file starts with a
// UTF-16 BOM; plain files get a buffered reader.
func decodedReader(f *os.File) io.Reader {
	br := bufio.NewReader(f)
	b, _ := br.Peek(2)
	if len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		f.Seek(0, 0)
		return transform.NewReader(f, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	}
	return br
}

// LoadBars loads OHLCV rows from a CSV file. Accepts both date,close and
// full date,open,high,low,close,volume layouts; rows that fail to parse are
// skipped. Survivors are sorted by date and deduplicated, keeping the last
// occurrence of a date.
func LoadBars(filename string) ([]Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	// CSV reader handles quoted fields robustly
	r := csv.NewReader(decodedReader(file))
	r.ReuseRecord = false
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	bars := make([]Bar, 0, 1_000)
	lineIndex := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			lineIndex++
			continue
		}
		if len(rec) < 2 {
			lineIndex++
			continue
		}

		// Skip header if present
		if lineIndex == 0 && (strings.EqualFold(strings.TrimPrefix(rec[0], "\uFEFF"), "date") ||
			strings.EqualFold(strings.TrimPrefix(rec[0], "\uFEFF"), "timestamp")) {
			lineIndex++
			continue
		}

		dateStr := strings.TrimSpace(rec[0])
		dateStr = strings.TrimPrefix(dateStr, "\uFEFF")
		date, err := ParseDate(dateStr)
		if err != nil {
			lineIndex++
			continue
		}

		bar := Bar{Date: date}
		if len(rec) >= 6 {
			open, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
			if err != nil {
				lineIndex++
				continue
			}
			high, err := decimal.NewFromString(strings.TrimSpace(rec[2]))
			if err != nil {
				lineIndex++
				continue
			}
			low, err := decimal.NewFromString(strings.TrimSpace(rec[3]))
			if err != nil {
				lineIndex++
				continue
			}
			close, err := decimal.NewFromString(strings.TrimSpace(rec[4]))
			if err != nil {
				lineIndex++
				continue
			}
			volume, err := decimal.NewFromString(strings.TrimSpace(rec[5]))
			if err != nil {
				volume = decimal.Zero
			}
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume = open, high, low, close, volume
		} else {
			close, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
			if err != nil {
				lineIndex++
				continue
			}
			bar.Open, bar.High, bar.Low, bar.Close = close, close, close, close
			bar.Volume = decimal.Zero
		}

		bars = append(bars, bar)
		lineIndex++
	}

	// Sort by date and deduplicate identical dates (keep last)
	if len(bars) > 1 {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
		uniq := make([]Bar, 0, len(bars))
		for _, b := range bars {
			if len(uniq) > 0 && b.Date.Equal(uniq[len(uniq)-1].Date) {
				// overwrite last
				uniq[len(uniq)-1] = b
				continue
			}
			uniq = append(uniq, b)
		}
		bars = uniq
	}
	log.Printf("Parsed %d bars from %s", len(bars), filename)

	return bars, nil
}

// LoadCSV loads a close-price series for the engine, running the quality
// gates over the parsed rows.
func LoadCSV(filename string) ([]engine.PricePoint, error) {
	bars, err := LoadBars(filename)
	if err != nil {
		return nil, err
	}
	points := ToPricePoints(bars)
	if err := Validate(filename, points); err != nil {
		return nil, fmt.Errorf("data validation failed: %w", err)
	}
	return points, nil
}
