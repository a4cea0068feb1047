package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/metrics"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// mockSource is a test LogSource that returns predefined lines.
type mockSource struct {
	lines []parser.LogLine
	index int
	err   error
}

func (m *mockSource) Next(ctx context.Context) (*parser.LogLine, error) {
	if m.index >= len(m.lines) {
		if m.err != nil {
			return nil, m.err
		}
		return nil, io.EOF
	}
	line := m.lines[m.index]
	m.index++
	return &line, nil
}

func (m *mockSource) Close() error {
	return nil
}

func testLines(source string, text ...string) []parser.LogLine {
	lines := make([]parser.LogLine, len(text))
	for i, l := range text {
		lines[i] = parser.LogLine{Content: l, Source: source, LineNum: i + 1}
	}
	return lines
}

var scenario = []string{
	"[2025-05-21 10:01:00] ERROR CAN-Bus timeout on channel 4",
	"[2025-05-21 10:01:30] INFO System nominal",
	"[2025-05-21 10:02:00] ERROR Firmware exception at address 0x5C4F",
}

func TestNewAnalyzer_Defaults(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if a.mode != ModeKeyword {
		t.Errorf("mode = %q, want keyword", a.mode)
	}
	if a.threshold != 5 {
		t.Errorf("threshold = %d, want 5", a.threshold)
	}
	if a.rules.Len() != len(classify.DefaultRules()) {
		t.Errorf("rules = %d, want built-in table", a.rules.Len())
	}
}

func TestNewAnalyzer_InvalidOptions(t *testing.T) {
	if _, err := NewAnalyzer(WithMode("fuzzy")); err == nil {
		t.Error("NewAnalyzer() expected error for unknown mode")
	}

	start := time.Date(2025, 5, 21, 12, 0, 0, 0, time.UTC)
	if _, err := NewAnalyzer(WithTimeRange(start, start.Add(-time.Hour))); err == nil {
		t.Error("NewAnalyzer() expected error for inverted time range")
	}
}

func TestAnalyzer_KeywordScenario(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.Analyze(context.Background(), testLines("fw.log", scenario...))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if result.TotalEvents() != 2 {
		t.Fatalf("TotalEvents() = %d, want 2", result.TotalEvents())
	}
	if result.Counts[classify.CommunicationError] != 1 || result.Counts[classify.FirmwareIssue] != 1 {
		t.Errorf("Counts = %v", result.Counts)
	}
	if !result.Verdict.Accepted {
		t.Errorf("Verdict = %+v, want accepted", result.Verdict)
	}
	if len(result.CriticalWindows) != 0 {
		t.Errorf("CriticalWindows = %v, want none", result.CriticalWindows)
	}
	if result.Metadata.LinesProcessed != 3 {
		t.Errorf("LinesProcessed = %d, want 3", result.Metadata.LinesProcessed)
	}
	if len(result.Metadata.Sources) != 1 || result.Metadata.Sources[0] != "fw.log" {
		t.Errorf("Sources = %v", result.Metadata.Sources)
	}
	if result.Suggestions != nil {
		t.Errorf("Suggestions = %v, want none unless requested", result.Suggestions)
	}
}

func TestAnalyzer_StructuredScenario(t *testing.T) {
	a, err := NewAnalyzer(WithMode(ModeStructured))
	if err != nil {
		t.Fatal(err)
	}

	lines := testLines("fw.log", append(scenario,
		"[2025-05-21 10:03:00] ERROR Firmware exception at address 0x5C50")...)
	result, err := a.Analyze(context.Background(), lines)
	if err != nil {
		t.Fatal(err)
	}

	if result.TotalEvents() != 3 {
		t.Fatalf("TotalEvents() = %d, want 3", result.TotalEvents())
	}
	if got := result.Events.Events[0].Category; got != "can_bus_timeout" {
		t.Errorf("first category = %q, want can_bus_timeout", got)
	}
	// structured mode yields rule labels, which the firmware_issue limit does not count
	if !result.Verdict.Accepted {
		t.Errorf("Verdict = %+v, want accepted", result.Verdict)
	}
}

func TestAnalyzer_RejectsOnFirmwareIssues(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatal(err)
	}

	lines := testLines("", append(scenario,
		"[2025-05-21 10:03:00] ERROR Firmware exception at address 0x5C50")...)
	result, err := a.Analyze(context.Background(), lines)
	if err != nil {
		t.Fatal(err)
	}

	if result.Verdict.Accepted {
		t.Fatal("Verdict accepted, want rejected")
	}
	if result.Verdict.Category != classify.FirmwareIssue || result.Verdict.Count != 2 {
		t.Errorf("Verdict = %+v", result.Verdict)
	}
}

func TestAnalyzer_CriticalWindowsAndPolicy(t *testing.T) {
	var text []string
	for i := 0; i < 4; i++ {
		text = append(text, fmt.Sprintf("2025-05-21 10:%02d:00 sensor failed", i))
	}

	a, err := NewAnalyzer(
		WithThreshold(4),
		WithPolicy(acceptance.Policy{FirmwareIssue: 2, VoltageWarning: 3, SensorError: 10}),
	)
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.Analyze(context.Background(), testLines("", text...))
	if err != nil {
		t.Fatal(err)
	}

	if len(result.CriticalWindows) != 1 || result.CriticalWindows[0].Count != 4 {
		t.Errorf("CriticalWindows = %v, want one window of 4", result.CriticalWindows)
	}
	if !result.Verdict.Accepted {
		t.Errorf("Verdict = %+v, want accepted under raised sensor limit", result.Verdict)
	}
}

func TestAnalyzer_TimeRange(t *testing.T) {
	start := time.Date(2025, 5, 21, 10, 1, 30, 0, time.UTC)
	a, err := NewAnalyzer(WithTimeRange(start, time.Time{}))
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.Analyze(context.Background(), testLines("", scenario...))
	if err != nil {
		t.Fatal(err)
	}
	if result.TotalEvents() != 1 {
		t.Errorf("TotalEvents() = %d, want 1 after time filter", result.TotalEvents())
	}
}

func TestAnalyzer_Suggestions(t *testing.T) {
	a, err := NewAnalyzer(WithSuggestions(true))
	if err != nil {
		t.Fatal(err)
	}

	lines := testLines("", append(scenario,
		"[2025-05-21 10:05:00] ERROR Watchdog reset by task 3",
		"[2025-05-21 10:06:00] ERROR Watchdog reset by task 4")...)
	result, err := a.Analyze(context.Background(), lines)
	if err != nil {
		t.Fatal(err)
	}

	if len(result.Suggestions) == 0 {
		t.Fatal("Suggestions empty, want watchdog phrase")
	}
	if result.Suggestions[0].Phrase != "watchdog reset by task" {
		t.Errorf("top suggestion = %q", result.Suggestions[0].Phrase)
	}
	// suggestions are metadata and do not change the event table
	if result.TotalEvents() != 2 {
		t.Errorf("TotalEvents() = %d, want 2", result.TotalEvents())
	}
}

func TestAnalyzer_Metrics(t *testing.T) {
	m := metrics.New()
	a, err := NewAnalyzer(WithMetrics(m))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := a.Analyze(context.Background(), testLines("", scenario...)); err != nil {
		t.Fatal(err)
	}

	mfs, err := m.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(mfs) == 0 {
		t.Fatal("no metrics gathered")
	}
	n, err := testutil.GatherAndCount(m.Registry(), "fwtriage_events_total")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("events_total series = %d, want 2", n)
	}
}

func TestAnalyzer_AnalyzeSource(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatal(err)
	}

	result, err := a.AnalyzeSource(context.Background(), &mockSource{lines: testLines("a.log", scenario...)})
	if err != nil {
		t.Fatalf("AnalyzeSource() error = %v", err)
	}
	if result.TotalEvents() != 2 {
		t.Errorf("TotalEvents() = %d, want 2", result.TotalEvents())
	}

	boom := errors.New("boom")
	if _, err := a.AnalyzeSource(context.Background(), &mockSource{err: boom}); !errors.Is(err, boom) {
		t.Errorf("AnalyzeSource() error = %v, want %v", err, boom)
	}
}

func TestAnalyzer_ContextCancellation(t *testing.T) {
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, testLines("", scenario...)); !errors.Is(err, context.Canceled) {
		t.Errorf("Analyze() error = %v, want context.Canceled", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{"": ModeKeyword, "Keyword": ModeKeyword, " structured ": ModeStructured}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("regex"); err == nil {
		t.Error("ParseMode() expected error")
	}
}
