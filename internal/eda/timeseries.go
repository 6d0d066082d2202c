package eda

import (
	"fmt"
	"strings"
	"time"

	"github.com/fedfraud/fedfraud/internal/dataset"
)

// timestampLayouts are tried in order when parsing the timestamp column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses a transaction timestamp in any supported layout.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// DayCount is the number of transactions on one calendar day.
type DayCount struct {
	Day   time.Time
	Count int
}

// DailyVolume counts transactions per calendar day from the first to the
// last day present, including days without transactions.
func DailyVolume(t *dataset.Table) ([]DayCount, error) {
	cells, err := t.Column(dataset.ColTimestamp)
	if err != nil {
		return nil, err
	}

	counts := make(map[time.Time]int)
	var first, last time.Time
	for i, c := range cells {
		if dataset.IsMissing(c) {
			continue
		}
		ts, err := ParseTimestamp(c)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
		if len(counts) == 0 || day.Before(first) {
			first = day
		}
		if len(counts) == 0 || day.After(last) {
			last = day
		}
		counts[day]++
	}
	if len(counts) == 0 {
		return nil, nil
	}

	var out []DayCount
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		out = append(out, DayCount{Day: d, Count: counts[d]})
	}
	return out, nil
}
