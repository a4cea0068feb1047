package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// TextFormatter formats reports as human-readable text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "fwtriage: %s - %s (%d events, %d critical windows)\n",
		report.Verdict.Status(),
		report.Verdict.Reason,
		report.Summary.TotalEvents,
		report.Summary.CriticalWindows)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	fmt.Fprintln(w, "=== fwtriage Release Report ===")
	fmt.Fprintln(w)

	f.formatCounts(report, w)
	f.formatWindows(report, w)

	if f.opts.Verbose {
		f.formatEvents(report, w)
	}
	if len(report.Suggestions) > 0 {
		f.formatSuggestions(report, w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Verdict: %s - %s\n", report.Verdict.Status(), report.Verdict.Reason)
	fmt.Fprintf(w, "Summary: %d lines, %d events in %d categories, %d critical windows\n",
		report.Summary.LinesProcessed,
		report.Summary.TotalEvents,
		report.Summary.Categories,
		report.Summary.CriticalWindows)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Mode: %s\n", report.Metadata.Mode)
		for _, rs := range report.Metadata.RuleSources {
			if rs.Error != "" {
				fmt.Fprintf(w, "Rules: %s skipped (%s)\n", rs.Name, rs.Error)
				continue
			}
			fmt.Fprintf(w, "Rules: %s (%d)\n", rs.Name, rs.Rules)
		}
		fmt.Fprintf(w, "Run ID: %s\n", report.Metadata.RunID)
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatCounts(report *Report, w io.Writer) {
	fmt.Fprintln(w, "[CATEGORIES]")
	if len(report.Counts) == 0 {
		fmt.Fprintln(w, "  No error events detected")
		fmt.Fprintln(w)
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range report.Counts {
		fmt.Fprintf(tw, "  %s\t%d\n", c.Category, c.Count)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatWindows(report *Report, w io.Writer) {
	fmt.Fprintf(w, "[CRITICAL WINDOWS] threshold %d/hour\n", report.Metadata.Threshold)
	if len(report.CriticalWindows) == 0 {
		fmt.Fprintln(w, "  None")
		fmt.Fprintln(w)
		return
	}

	for _, win := range report.CriticalWindows {
		fmt.Fprintf(w, "  - %s  %s: %d\n", win.Hour.Format("2006-01-02 15:00"), win.Category, win.Count)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatEvents(report *Report, w io.Writer) {
	fmt.Fprintln(w, "[EVENTS]")
	events := report.Events
	if f.opts.MaxEvents > 0 && len(events) > f.opts.MaxEvents {
		events = events[:f.opts.MaxEvents]
	}
	for _, e := range events {
		loc := ""
		if e.Source != "" {
			loc = fmt.Sprintf("  (%s:%d)", e.Source, e.LineNum)
		}
		fmt.Fprintf(w, "  %s  %s%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Category, loc)
	}
	if hidden := len(report.Events) - len(events); hidden > 0 {
		fmt.Fprintf(w, "  ... %d more\n", hidden)
	}
	fmt.Fprintln(w)
}

func (f *TextFormatter) formatSuggestions(report *Report, w io.Writer) {
	fmt.Fprintln(w, "[SUGGESTIONS]")
	for _, s := range report.Suggestions {
		fmt.Fprintf(w, "  %3d  %s\n", s.Count, strings.TrimSpace(s.Phrase))
		if f.opts.Verbose {
			fmt.Fprintf(w, "       %s: %s\n", s.Label, s.Pattern)
		}
	}
	fmt.Fprintln(w)
}
