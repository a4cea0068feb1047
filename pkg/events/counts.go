package events

import (
	"sort"

	"github.com/ccollicutt/fwtriage/pkg/classify"
)

// CategoryCount is one row of a per-category count table.
type CategoryCount struct {
	Category classify.Category `json:"category"`
	Count    int               `json:"count"`
}

// Counts returns the number of events per category. A table without a
// category column yields an empty map.
func Counts(t *Table) map[classify.Category]int {
	counts := make(map[classify.Category]int)
	if !t.HasColumn(ColumnCategory) {
		return counts
	}
	for _, e := range t.Events {
		counts[e.Category]++
	}
	return counts
}

// SortedCounts returns counts ordered by count descending, then category.
func SortedCounts(counts map[classify.Category]int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for c, n := range counts {
		out = append(out, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out
}
