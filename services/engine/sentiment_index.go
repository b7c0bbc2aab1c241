package engine

import "time"

// SentimentIndex resolves the sentiment point for a calendar day. Exact
// matches (time-of-day ignored) are served from a prebuilt map; otherwise a
// linear scan returns the point with the minimum absolute time distance,
// ties breaking to the lowest original index.
type SentimentIndex struct {
	points []SentimentPoint
	byDay  map[string]int
}

// NewSentimentIndex builds the exact-date map. On duplicate dates the first
// occurrence wins, preserving lowest-index tie-breaking.
func NewSentimentIndex(points []SentimentPoint) *SentimentIndex {
	idx := &SentimentIndex{
		points: points,
		byDay:  make(map[string]int, len(points)),
	}
	for i, p := range points {
		key := dayKey(p.Date)
		if _, seen := idx.byDay[key]; !seen {
			idx.byDay[key] = i
		}
	}
	return idx
}

// Lookup returns the sentiment point for date, or ErrNoSentimentMatch when
// the index holds no points at all.
func (x *SentimentIndex) Lookup(date time.Time) (SentimentPoint, error) {
	if len(x.points) == 0 {
		return SentimentPoint{}, ErrNoSentimentMatch
	}
	if i, ok := x.byDay[dayKey(date)]; ok {
		return x.points[i], nil
	}
	best := 0
	bestDiff := absDuration(x.points[0].Date.Sub(date))
	for i := 1; i < len(x.points); i++ {
		d := absDuration(x.points[i].Date.Sub(date))
		if d < bestDiff {
			bestDiff = d
			best = i
		}
	}
	return x.points[best], nil
}

// Len returns the number of indexed points.
func (x *SentimentIndex) Len() int { return len(x.points) }

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
