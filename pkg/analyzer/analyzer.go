package analyzer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/metrics"
	"github.com/ccollicutt/fwtriage/pkg/miner"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// Analyzer orchestrates the pipeline for one run.
type Analyzer struct {
	mode      Mode
	threshold int
	policy    acceptance.Policy
	keywords  *classify.KeywordClassifier
	rules     *classify.RuleSet
	logger    *zap.Logger
	metrics   *metrics.Metrics

	timeRange   *TimeRange
	suggestions bool
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithMode selects the classification path.
func WithMode(m Mode) AnalyzerOption {
	return func(a *Analyzer) {
		if m != "" {
			a.mode = m
		}
	}
}

// WithThreshold sets the critical window threshold.
func WithThreshold(n int) AnalyzerOption {
	return func(a *Analyzer) {
		if n > 0 {
			a.threshold = n
		}
	}
}

// WithPolicy sets the acceptance limits.
func WithPolicy(p acceptance.Policy) AnalyzerOption {
	return func(a *Analyzer) {
		a.policy = p
	}
}

// WithKeywords sets the keyword classifier used in keyword mode.
func WithKeywords(k *classify.KeywordClassifier) AnalyzerOption {
	return func(a *Analyzer) {
		if k != nil {
			a.keywords = k
		}
	}
}

// WithRules sets the rule set used in structured mode and by the miner.
func WithRules(rs *classify.RuleSet) AnalyzerOption {
	return func(a *Analyzer) {
		if rs != nil {
			a.rules = rs
		}
	}
}

// WithTimeRange limits analysis to events within the given time range.
func WithTimeRange(start, end time.Time) AnalyzerOption {
	return func(a *Analyzer) {
		a.timeRange = &TimeRange{Start: start, End: end}
	}
}

// WithSuggestions mines unclassified phrases alongside the analysis.
func WithSuggestions(v bool) AnalyzerOption {
	return func(a *Analyzer) {
		a.suggestions = v
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMetrics records pipeline counters.
func WithMetrics(m *metrics.Metrics) AnalyzerOption {
	return func(a *Analyzer) {
		a.metrics = m
	}
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		mode:      ModeKeyword,
		threshold: events.DefaultThreshold,
		policy:    acceptance.DefaultPolicy(),
		keywords:  classify.NewKeywordClassifier(),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if _, err := ParseMode(string(a.mode)); err != nil {
		return nil, err
	}
	if a.timeRange != nil && !a.timeRange.End.IsZero() && a.timeRange.End.Before(a.timeRange.Start) {
		return nil, fmt.Errorf("time range end %s is before start %s", a.timeRange.End, a.timeRange.Start)
	}
	if a.rules == nil {
		a.rules = classify.MustRuleSet(classify.DefaultRules())
	}

	return a, nil
}

// Analyze runs the pipeline over lines.
func (a *Analyzer) Analyze(ctx context.Context, lines []parser.LogLine) (*AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &AnalysisResult{
		Metadata: AnalysisMetadata{
			Mode:           a.mode,
			Threshold:      a.threshold,
			TimeRange:      a.timeRange,
			StartTime:      time.Now(),
			LinesProcessed: len(lines),
			Sources:        sources(lines),
		},
	}

	if n := parser.CountTruncated(lines); n > 0 {
		a.logger.Warn("oversized lines truncated",
			zap.Int("lines", n),
			zap.Int("max_line_size", parser.MaxLineSize))
	}

	var tbl *events.Table
	switch a.mode {
	case ModeStructured:
		tbl = events.AggregateStructured(lines, a.rules)
	default:
		tbl = events.Aggregate(lines, a.keywords)
	}
	result.Events = a.filter(tbl)

	result.Counts = events.Counts(result.Events)
	result.CriticalWindows = events.CriticalWindows(result.Events, a.threshold)
	result.Verdict = a.policy.Evaluate(result.Events)

	if a.suggestions {
		result.Suggestions = miner.New(miner.WithRules(a.rules)).Mine(lines).Suggestions
	}

	result.Metadata.EndTime = time.Now()
	a.record(result)

	a.logger.Debug("analysis finished",
		zap.String("mode", string(a.mode)),
		zap.Int("lines", len(lines)),
		zap.Int("events", result.Events.Len()),
		zap.Int("critical_windows", len(result.CriticalWindows)),
		zap.Bool("accepted", result.Verdict.Accepted),
		zap.Duration("duration", result.Metadata.Duration()))

	return result, nil
}

// AnalyzeSource drains source and runs the pipeline over its lines.
func (a *Analyzer) AnalyzeSource(ctx context.Context, source parser.LogSource) (*AnalysisResult, error) {
	lines, err := parser.Collect(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("reading log source: %w", err)
	}
	return a.Analyze(ctx, lines)
}

func (a *Analyzer) filter(tbl *events.Table) *events.Table {
	if a.timeRange == nil {
		return tbl
	}
	out := &events.Table{Columns: tbl.Columns, Events: make([]events.Event, 0, len(tbl.Events))}
	for _, e := range tbl.Events {
		if a.timeRange.Contains(e.Timestamp) {
			out.Events = append(out.Events, e)
		}
	}
	return out
}

func (a *Analyzer) record(r *AnalysisResult) {
	if a.metrics == nil {
		return
	}
	a.metrics.AddLines(r.Metadata.LinesProcessed)
	for cat, n := range r.Counts {
		a.metrics.AddEvents(string(cat), n)
	}
	a.metrics.AddCriticalWindows(len(r.CriticalWindows))
	a.metrics.SetVerdict(r.Verdict.Accepted)
	a.metrics.ObserveDuration(r.Metadata.Duration())
}

func sources(lines []parser.LogLine) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lines {
		if l.Source == "" || seen[l.Source] {
			continue
		}
		seen[l.Source] = true
		out = append(out, l.Source)
	}
	return out
}
