// Package table holds the canonical in-memory table passed between pipeline
// stages and writers: ordered columns and ordered rows.
package table

import (
	"fmt"
	"time"
)

// TimeLayout is used when a time.Time cell is rendered.
const TimeLayout = "2006-01-02 15:04:05"

// Table is an ordered sequence of rows sharing the same ordered columns.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds a row. Missing trailing values are left nil; extra values are
// an error.
func (t *Table) Append(values ...any) error {
	if len(values) > len(t.Columns) {
		return fmt.Errorf("row has %d values for %d columns", len(values), len(t.Columns))
	}
	row := make([]any, len(t.Columns))
	copy(row, values)
	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Column returns the index of the named column, or -1.
func (t *Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Cell renders a value as text for writers.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(TimeLayout)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
