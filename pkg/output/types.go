// Package output provides formatting and output generation for analysis results.
package output

import (
	"time"

	"github.com/google/uuid"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/analyzer"
	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/miner"
)

// Report is the complete analysis output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Verdict is the release decision.
	Verdict acceptance.Verdict `json:"verdict"`

	// Counts lists events per category, most frequent first.
	Counts []events.CategoryCount `json:"counts"`

	// CriticalWindows are hourly windows at or above the threshold.
	CriticalWindows []events.Window `json:"critical_windows"`

	// Events is the full event table. Only rendered in verbose mode.
	Events []EventRow `json:"events,omitempty"`

	// Suggestions are frequent unclassified phrases, if mined.
	Suggestions []miner.Suggestion `json:"suggestions,omitempty"`

	// Metadata provides context about the analysis.
	Metadata Metadata `json:"metadata"`
}

// EventRow is one event in report form.
type EventRow struct {
	Timestamp time.Time         `json:"timestamp"`
	Category  classify.Category `json:"category"`
	Source    string            `json:"source,omitempty"`
	LineNum   int               `json:"line,omitempty"`
}

// Summary provides aggregate statistics.
type Summary struct {
	// LinesProcessed is the total number of log lines analyzed.
	LinesProcessed int `json:"lines_processed"`

	// TotalEvents is the number of error events.
	TotalEvents int `json:"total_events"`

	// Categories is the number of distinct categories seen.
	Categories int `json:"categories"`

	// CriticalWindows is the number of critical windows.
	CriticalWindows int `json:"critical_windows"`

	// Accepted mirrors the verdict.
	Accepted bool `json:"accepted"`
}

// Metadata provides context about the analysis run.
type Metadata struct {
	// RunID identifies this run in webhooks and logs.
	RunID string `json:"run_id"`

	// ConfigFile is the path to the configuration file used.
	ConfigFile string `json:"config_file,omitempty"`

	// Mode is the classification path.
	Mode string `json:"mode"`

	// Threshold is the critical window threshold.
	Threshold int `json:"threshold"`

	// Sources lists the log files that were analyzed.
	Sources []string `json:"sources,omitempty"`

	// RuleSources reports how each rule source was merged.
	RuleSources []RuleSource `json:"rule_sources,omitempty"`

	// TimeRange is the time filter that was applied, if any.
	TimeRange *TimeRange `json:"time_range,omitempty"`

	// AnalyzedAt is when the analysis was performed.
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Duration is how long the analysis took.
	Duration time.Duration `json:"duration_ns"`
}

// RuleSource is the load result of one rule source.
type RuleSource struct {
	Name  string `json:"name"`
	Rules int    `json:"rules"`
	Error string `json:"error,omitempty"`
}

// TimeRange represents a time window for filtering.
type TimeRange struct {
	Start time.Time `json:"start,omitempty"`
	End   time.Time `json:"end,omitempty"`
}

// NewReport creates a Report from analysis results.
func NewReport(result *analyzer.AnalysisResult, configFile string) *Report {
	report := &Report{
		Verdict:         result.Verdict,
		Counts:          events.SortedCounts(result.Counts),
		CriticalWindows: result.CriticalWindows,
		Suggestions:     result.Suggestions,
		Metadata: Metadata{
			RunID:      uuid.NewString(),
			ConfigFile: configFile,
			Mode:       string(result.Metadata.Mode),
			Threshold:  result.Metadata.Threshold,
			Sources:    result.Metadata.Sources,
			AnalyzedAt: result.Metadata.EndTime,
			Duration:   result.Metadata.Duration(),
		},
		Summary: Summary{
			LinesProcessed:  result.Metadata.LinesProcessed,
			TotalEvents:     result.TotalEvents(),
			Categories:      len(result.Counts),
			CriticalWindows: len(result.CriticalWindows),
			Accepted:        result.Verdict.Accepted,
		},
	}

	if report.CriticalWindows == nil {
		report.CriticalWindows = []events.Window{}
	}

	if result.Events != nil {
		for _, e := range result.Events.Events {
			report.Events = append(report.Events, EventRow{
				Timestamp: e.Timestamp,
				Category:  e.Category,
				Source:    e.Source,
				LineNum:   e.LineNum,
			})
		}
	}

	if result.Metadata.TimeRange != nil {
		report.Metadata.TimeRange = &TimeRange{
			Start: result.Metadata.TimeRange.Start,
			End:   result.Metadata.TimeRange.End,
		}
	}

	return report
}

// SetRuleSources records the rule source load results.
func (r *Report) SetRuleSources(results []classify.SourceResult) {
	r.Metadata.RuleSources = r.Metadata.RuleSources[:0]
	for _, res := range results {
		rs := RuleSource{Name: res.Source, Rules: res.Rules}
		if res.Err != nil {
			rs.Error = res.Err.Error()
		}
		r.Metadata.RuleSources = append(r.Metadata.RuleSources, rs)
	}
}

// Rejected returns true if the release was rejected.
func (r *Report) Rejected() bool {
	return !r.Verdict.Accepted
}
