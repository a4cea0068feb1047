// Package events turns classified log lines into an ordered error event table
// and derives per-category counts and hourly critical windows from it.
package events

import (
	"time"

	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/parser"
	"github.com/ccollicutt/fwtriage/pkg/table"
)

// Column names of an event table.
const (
	ColumnTimestamp = "timestamp"
	ColumnCategory  = "category"
	ColumnSource    = "source"
)

// Event is a single error occurrence. It is never mutated after creation.
type Event struct {
	Timestamp time.Time
	Category  classify.Category

	// Source is the originating file, if known.
	Source string

	// LineNum is the 1-based line the event was read from.
	LineNum int
}

// Table is an ordered event table. Events keep input order.
type Table struct {
	Columns []string
	Events  []Event
}

// NewTable returns an empty table with the timestamp and category columns.
func NewTable() *Table {
	return &Table{Columns: []string{ColumnTimestamp, ColumnCategory}}
}

// HasColumn reports whether the table declares the named column.
func (t *Table) HasColumn(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Len returns the number of events.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Events)
}

func (t *Table) add(e Event) {
	if e.Source != "" && !t.HasColumn(ColumnSource) {
		t.Columns = append(t.Columns, ColumnSource)
	}
	t.Events = append(t.Events, e)
}

// LineClassifier assigns a category to a raw line.
// *classify.KeywordClassifier and *classify.RuleSet satisfy it.
type LineClassifier interface {
	Classify(line string) classify.Category
}

// Aggregate builds an event table from raw lines. A line becomes an event only
// when it carries a timestamp and classifies as something other than info.
// A nil classifier uses the default keyword table.
func Aggregate(lines []parser.LogLine, c LineClassifier) *Table {
	if c == nil {
		c = classify.NewKeywordClassifier()
	}

	t := NewTable()
	for _, line := range lines {
		ts, ok := parser.ExtractTimestamp(line.Content)
		if !ok {
			continue
		}
		cat := c.Classify(line.Content)
		if !cat.IsError() {
			continue
		}
		t.add(Event{Timestamp: ts, Category: cat, Source: line.Source, LineNum: line.LineNum})
	}
	return t
}

// AggregateStructured builds an event table using the structured grammar.
// Lines outside the grammar, lines without a timestamp and informational
// levels are dropped; messages are classified by classify.ClassifyStructured.
func AggregateStructured(lines []parser.LogLine, rules *classify.RuleSet) *Table {
	t := NewTable()
	for _, line := range lines {
		sl, ok := parser.ParseStructured(line)
		if !ok || !sl.HasTimestamp || parser.IsInformational(sl.Level) {
			continue
		}
		cat := classify.ClassifyStructured(sl.Message, rules)
		t.add(Event{Timestamp: sl.Timestamp, Category: cat, Source: line.Source, LineNum: line.LineNum})
	}
	return t
}

// ToTable converts the events to the canonical table using t's columns.
func (t *Table) ToTable() *table.Table {
	out := table.New(t.Columns...)
	for _, e := range t.Events {
		row := make([]any, len(t.Columns))
		for i, c := range t.Columns {
			switch c {
			case ColumnTimestamp:
				row[i] = e.Timestamp
			case ColumnCategory:
				row[i] = string(e.Category)
			case ColumnSource:
				row[i] = e.Source
			}
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// WindowTable converts windows to the canonical table.
func WindowTable(windows []Window) *table.Table {
	out := table.New("hour", ColumnCategory, "count")
	for _, w := range windows {
		out.Rows = append(out.Rows, []any{w.Hour, string(w.Category), w.Count})
	}
	return out
}
