package analytics

import (
	"fmt"
	"sort"
	"time"

	"tripquest/core"
)

// Period selects the bucket width for a rollup.
type Period string

const (
	PeriodDaily  Period = "daily"
	PeriodWeekly Period = "weekly"
)

// Bucket is one aggregated slice of the points history.
type Bucket struct {
	Period    Period    `json:"period"`
	Key       string    `json:"key"` // "2026-01-02" for daily, "2026-W01" for weekly
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Points   int            `json:"points"`
	Awards   int            `json:"awards"`
	ByReason map[string]int `json:"by_reason"`
}

// Rollup aggregates a points history into period buckets, sorted by key.
// The history order does not matter; entries land in the bucket their
// timestamp falls into.
func Rollup(history []core.PointsEntry, period Period) []Bucket {
	buckets := map[string]*Bucket{}
	for _, entry := range history {
		key, start, end := bucketBounds(entry.Timestamp, period)
		b, ok := buckets[key]
		if !ok {
			b = &Bucket{
				Period:    period,
				Key:       key,
				StartTime: start,
				EndTime:   end,
				ByReason:  map[string]int{},
			}
			buckets[key] = b
		}
		b.Points += entry.Amount
		b.Awards++
		b.ByReason[entry.Reason] += entry.Amount
	}

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func bucketBounds(t time.Time, period Period) (key string, start, end time.Time) {
	t = t.UTC()
	switch period {
	case PeriodWeekly:
		year, week := t.ISOWeek()
		key = fmt.Sprintf("%d-W%02d", year, week)
		daysSinceMonday := (int(t.Weekday()) - int(time.Monday) + 7) % 7
		start = time.Date(t.Year(), t.Month(), t.Day()-daysSinceMonday, 0, 0, 0, 0, time.UTC)
		end = start.Add(7 * 24 * time.Hour)
	default:
		key = t.Format("2006-01-02")
		start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		end = start.Add(24 * time.Hour)
	}
	return key, start, end
}

// Totals summarizes a whole history in one pass.
type Totals struct {
	Points     int            `json:"points"`
	Awards     int            `json:"awards"`
	ByReason   map[string]int `json:"by_reason"`
	FirstAward *time.Time     `json:"first_award,omitempty"`
	LastAward  *time.Time     `json:"last_award,omitempty"`
}

func Summarize(history []core.PointsEntry) Totals {
	t := Totals{ByReason: map[string]int{}}
	for _, entry := range history {
		t.Points += entry.Amount
		t.Awards++
		t.ByReason[entry.Reason] += entry.Amount
		ts := entry.Timestamp
		if t.FirstAward == nil || ts.Before(*t.FirstAward) {
			first := ts
			t.FirstAward = &first
		}
		if t.LastAward == nil || ts.After(*t.LastAward) {
			last := ts
			t.LastAward = &last
		}
	}
	return t
}
