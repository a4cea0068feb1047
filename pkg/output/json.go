package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if f.opts.Quiet {
		// Quiet mode: summary and verdict only
		return encoder.Encode(struct {
			Summary Summary            `json:"summary"`
			Verdict acceptance.Verdict `json:"verdict"`
		}{report.Summary, report.Verdict})
	}

	if !f.opts.Verbose {
		trimmed := *report
		trimmed.Events = nil
		return encoder.Encode(&trimmed)
	}

	return encoder.Encode(report)
}
