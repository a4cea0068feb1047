// Package compare aggregates every log file in a directory and merges the
// per-file category counts into one long-form table.
package compare

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/metrics"
	"github.com/ccollicutt/fwtriage/pkg/parser"
	"github.com/ccollicutt/fwtriage/pkg/table"
)

// Skip reasons.
const (
	SkipUnreadable = "unreadable"
	SkipNoEvents   = "no_events"
)

// Row is the number of events of one category in one file.
type Row struct {
	File     string            `json:"filename"`
	Category classify.Category `json:"category"`
	Count    int               `json:"count"`
}

// Skipped describes a file that contributed no rows.
type Skipped struct {
	File   string `json:"filename"`
	Reason string `json:"reason"`
	Err    string `json:"error,omitempty"`
}

// Result is the merged comparison.
type Result struct {
	Rows    []Row     `json:"rows"`
	Files   []string  `json:"files"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// Table converts the rows to the canonical (filename, category, count) table.
func (r *Result) Table() *table.Table {
	out := table.New("filename", events.ColumnCategory, "count")
	for _, row := range r.Rows {
		out.Rows = append(out.Rows, []any{row.File, string(row.Category), row.Count})
	}
	return out
}

// Comparator runs the event aggregator over each eligible file in a directory.
type Comparator struct {
	classifier events.LineClassifier
	extensions []string
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithClassifier sets the line classifier. Defaults to the keyword table.
func WithClassifier(c events.LineClassifier) Option {
	return func(cmp *Comparator) {
		if c != nil {
			cmp.classifier = c
		}
	}
}

// WithExtensions sets the eligible file extensions.
func WithExtensions(exts []string) Option {
	return func(c *Comparator) {
		if len(exts) > 0 {
			c.extensions = exts
		}
	}
}

// WithLogger sets the logger used for skip warnings.
func WithLogger(l *zap.Logger) Option {
	return func(c *Comparator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records lines, events and skipped files.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Comparator) {
		c.metrics = m
	}
}

// New creates a Comparator.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		classifier: classify.NewKeywordClassifier(),
		extensions: parser.DefaultExtensions,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compare processes the eligible files directly inside dir in name order.
// Files that cannot be read or yield no events are skipped with a warning.
// Only a failure to list dir is returned as an error.
func (c *Comparator) Compare(ctx context.Context, dir string) (*Result, error) {
	files, err := parser.ListFiles(dir, c.extensions)
	if err != nil {
		return nil, err
	}

	res := &Result{Rows: []Row{}, Files: []string{}}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		name := filepath.Base(path)
		lines, err := parser.ReadLines(ctx, path)
		if err != nil {
			c.skip(res, name, SkipUnreadable, err)
			continue
		}
		c.metrics.AddLines(len(lines))
		if n := parser.CountTruncated(lines); n > 0 {
			c.logger.Warn("oversized lines truncated",
				zap.String("file", name),
				zap.Int("lines", n),
				zap.Int("max_line_size", parser.MaxLineSize))
		}

		tbl := events.Aggregate(lines, c.classifier)
		if tbl.Len() == 0 {
			c.skip(res, name, SkipNoEvents, nil)
			continue
		}

		counts := events.Counts(tbl)
		c.recordEvents(counts)

		res.Files = append(res.Files, name)
		res.Rows = append(res.Rows, fileRows(name, counts)...)
	}

	c.logger.Debug("comparison finished",
		zap.String("dir", dir),
		zap.Int("files", len(res.Files)),
		zap.Int("skipped", len(res.Skipped)),
		zap.Int("rows", len(res.Rows)))

	return res, nil
}

func (c *Comparator) skip(res *Result, name, reason string, err error) {
	s := Skipped{File: name, Reason: reason}
	fields := []zap.Field{zap.String("file", name), zap.String("reason", reason)}
	if err != nil {
		s.Err = err.Error()
		fields = append(fields, zap.Error(err))
	}
	res.Skipped = append(res.Skipped, s)
	c.metrics.FileSkipped(reason)
	c.logger.Warn("skipping file", fields...)
}

func (c *Comparator) recordEvents(counts map[classify.Category]int) {
	for cat, n := range counts {
		c.metrics.AddEvents(string(cat), n)
	}
}

// fileRows counts one file's events per category, sorted by category.
func fileRows(name string, counts map[classify.Category]int) []Row {
	rows := make([]Row, 0, len(counts))
	for cat, n := range counts {
		if !cat.IsError() {
			continue
		}
		rows = append(rows, Row{File: name, Category: cat, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Category < rows[j].Category
	})
	return rows
}

// String summarises the result for log output.
func (r *Result) String() string {
	return fmt.Sprintf("%d file(s), %d skipped, %d row(s)", len(r.Files), len(r.Skipped), len(r.Rows))
}
