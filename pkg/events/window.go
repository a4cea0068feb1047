package events

import (
	"sort"
	"time"

	"github.com/ccollicutt/fwtriage/pkg/classify"
)

// DefaultThreshold is the minimum number of events in an hour for a window
// to be reported as critical.
const DefaultThreshold = 5

// Window is the event count for one category within one clock hour.
type Window struct {
	Hour     time.Time         `json:"hour"`
	Category classify.Category `json:"category"`
	Count    int               `json:"count"`
}

type windowKey struct {
	hour     time.Time
	category classify.Category
}

// HourFloor truncates t to the start of its clock hour in t's location.
func HourFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// Windows groups events by (hour, category) and returns every group sorted by
// hour, then category. A table without a timestamp column yields nil.
func Windows(t *Table) []Window {
	if !t.HasColumn(ColumnTimestamp) {
		return nil
	}

	counts := make(map[windowKey]int)
	for _, e := range t.Events {
		counts[windowKey{hour: HourFloor(e.Timestamp), category: e.Category}]++
	}

	out := make([]Window, 0, len(counts))
	for k, n := range counts {
		out = append(out, Window{Hour: k.hour, Category: k.category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Hour.Equal(out[j].Hour) {
			return out[i].Hour.Before(out[j].Hour)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// CriticalWindows returns the windows whose count is at least threshold.
// A threshold below 1 uses DefaultThreshold.
func CriticalWindows(t *Table, threshold int) []Window {
	if threshold < 1 {
		threshold = DefaultThreshold
	}

	var out []Window
	for _, w := range Windows(t) {
		if w.Count >= threshold {
			out = append(out, w)
		}
	}
	return out
}
