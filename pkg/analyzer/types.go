// Package analyzer runs the firmware log pipeline: lines are classified into
// error events, bucketed into hourly windows and evaluated for release.
package analyzer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/miner"
)

// Mode selects the classification path.
type Mode string

const (
	// ModeKeyword classifies whole lines with the ordered keyword table.
	ModeKeyword Mode = "keyword"

	// ModeStructured parses the timestamp/level/message grammar and classifies
	// the message with the message-pattern table, then the rule set.
	ModeStructured Mode = "structured"
)

// ParseMode validates a mode name. The empty string selects ModeKeyword.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeKeyword:
		return ModeKeyword, nil
	case ModeStructured:
		return ModeStructured, nil
	default:
		return "", fmt.Errorf("unknown mode %q (use keyword or structured)", s)
	}
}

// TimeRange limits events to [Start, End].
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the range. Zero bounds are open.
func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && t.After(r.End) {
		return false
	}
	return true
}

// AnalysisResult contains the complete analysis output.
type AnalysisResult struct {
	// Events is the ordered error event table.
	Events *events.Table

	// Counts is the number of events per category.
	Counts map[classify.Category]int

	// CriticalWindows are the hourly windows at or above the threshold.
	CriticalWindows []events.Window

	// Verdict is the release decision.
	Verdict acceptance.Verdict

	// Suggestions are frequent unclassified phrases, when requested.
	Suggestions []miner.Suggestion

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// Mode is the classification path used.
	Mode Mode

	// Threshold is the critical window threshold applied.
	Threshold int

	// Sources lists the log files that were analyzed.
	Sources []string

	// TimeRange is the time filter applied, if any.
	TimeRange *TimeRange

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time

	// LinesProcessed is the total number of log lines examined.
	LinesProcessed int
}

// Duration returns the wall time of the run.
func (m AnalysisMetadata) Duration() time.Duration {
	return m.EndTime.Sub(m.StartTime)
}

// TotalEvents returns the number of error events.
func (r *AnalysisResult) TotalEvents() int {
	return r.Events.Len()
}
