package sentiment

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"sentiment-backtest/services/engine"
	"sentiment-backtest/services/marketdata"
)

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

// LoadCSV loads a sentiment series from date,value[,classification] rows.
// Values may be fractional in the file; they are rounded to integers. Rows
// outside 0-100 or otherwise unparseable are skipped. Output is sorted by
// date with duplicate dates collapsed, keeping the last occurrence. A
// missing classification column is filled from the value's band.
func LoadCSV(filename string) ([]engine.SentimentPoint, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(decodedReader(file))
	r.ReuseRecord = false
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	points := make([]engine.SentimentPoint, 0, 1_000)
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
		if lineIndex == 0 && strings.EqualFold(strings.TrimPrefix(rec[0], "\uFEFF"), "date") {
			lineIndex++
			continue
		}

		dateStr := strings.TrimSpace(rec[0])
		dateStr = strings.TrimPrefix(dateStr, "\uFEFF")
		date, err := marketdata.ParseDate(dateStr)
		if err != nil {
			lineIndex++
			continue
		}

		raw, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			lineIndex++
			continue
		}
		value := int(math.Round(raw))
		if value < 0 || value > 100 {
			lineIndex++
			continue
		}

		classification := ""
		if len(rec) >= 3 {
			classification = strings.TrimSpace(rec[2])
		}
		if classification == "" {
			classification = Classify(value)
		}

		points = append(points, engine.SentimentPoint{
			Date:           date,
			Value:          value,
			Classification: classification,
		})
		lineIndex++
	}

	// Sort by date and deduplicate identical dates (keep last)
	if len(points) > 1 {
		sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		uniq := make([]engine.SentimentPoint, 0, len(points))
		for _, p := range points {
			if len(uniq) > 0 && p.Date.Equal(uniq[len(uniq)-1].Date) {
				uniq[len(uniq)-1] = p
				continue
			}
			uniq = append(uniq, p)
		}
		points = uniq
	}
	log.Printf("Parsed %d sentiment points from %s", len(points), filename)

	if len(points) == 0 {
		return nil, fmt.Errorf("no sentiment data in %s", filename)
	}
	return points, nil
}
