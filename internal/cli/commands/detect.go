package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/detector"
	"github.com/ccollicutt/fwtriage/pkg/events"
)

// DetectOptions holds command-line options for the detect command.
type DetectOptions struct {
	Output      string
	SampleSize  int
	ShowAll     bool
	WriteConfig string
}

// NewDetectCommand creates the detect command.
func NewDetectCommand() *cobra.Command {
	opts := &DetectOptions{}

	cmd := &cobra.Command{
		Use:   "detect <log-file>",
		Short: "Detect the log layout and recommend an analysis mode",
		Long: `Sample a log file and report how its lines would be read.

Reports the share of lines that fit the structured timestamp/level/message
grammar, the share with an extractable "YYYY-MM-DD HH:MM:SS" timestamp, and
the timestamp shapes found. Recommends --mode structured when most lines are
structured, keyword otherwise.

Optionally generates a starter config file with --write-config.

Example:
  fwtriage detect fw.log
  fwtriage detect --sample 500 large.log
  fwtriage detect -w fwtriage.yaml fw.log`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDetect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.SampleSize, "sample", "n", detector.DefaultSampleSize, "Number of lines to sample")
	cmd.Flags().BoolVar(&opts.ShowAll, "all", false, "Show every timestamp shape found, not just the most common")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

func runDetect(cmd *cobra.Command, args []string, opts *DetectOptions) error {
	logFile := args[0]
	ctx := commandContext(cmd)

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		return fmt.Errorf("log file not found: %s", logFile)
	}

	d := detector.New(detector.WithSampleSize(opts.SampleSize))

	result, err := d.DetectFromFile(ctx, logFile)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	w := cmd.OutOrStdout()

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(result, logFile, opts.WriteConfig); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote starter config to: %s\n\n", opts.WriteConfig)
	}

	switch opts.Output {
	case "json":
		return outputDetectJSON(w, result, logFile, opts)
	default:
		outputDetectText(w, result, logFile, opts)
		return nil
	}
}

func outputDetectText(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) {
	fmt.Fprintln(w, "=== Log Layout Detection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", logFile)
	fmt.Fprintf(w, "Lines sampled: %d\n", result.SampledLines)
	fmt.Fprintf(w, "Structured lines: %d (%.1f%% with timestamp)\n",
		result.StructuredLines, result.StructuredShare()*100)
	fmt.Fprintf(w, "Lines with timestamps: %d (%.1f%%)\n",
		result.ParsedLines, result.TimestampShare()*100)
	fmt.Fprintln(w)

	if best := result.BestMatch(); best != nil {
		fmt.Fprintf(w, "Timestamp format: %s\n", best.Format.Name)
		fmt.Fprintf(w, "Confidence: %.1f%% (%d/%d lines matched)\n",
			best.Confidence*100, best.MatchCount, result.SampledLines)
		fmt.Fprintf(w, "Sample match:\n  %s\n", best.SampleLine)
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Recommended mode: %s\n", result.Recommended)
	fmt.Fprintf(w, "  fwtriage analyze --mode %s %s\n", result.Recommended, logFile)
	fmt.Fprintln(w)

	for _, n := range result.Notes {
		fmt.Fprintf(w, "Note: %s\n", n)
	}

	if opts.ShowAll && len(result.Matches) > 1 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "--- All timestamp formats found ---")
		for i, m := range result.Matches {
			supported := ""
			if m.Format.Supported {
				supported = ", supported"
			}
			fmt.Fprintf(w, "%d. %s (%.1f%%%s)\n", i+1, m.Format.Name, m.Confidence*100, supported)
			fmt.Fprintf(w, "   pattern: '%s'\n", m.Format.PatternStr)
		}
	}
}

// JSONMatch represents a timestamp format match in JSON output.
type JSONMatch struct {
	Name       string  `json:"name"`
	Pattern    string  `json:"pattern"`
	Confidence float64 `json:"confidence"`
	MatchCount int     `json:"match_count"`
	SampleLine string  `json:"sample_line"`
	Supported  bool    `json:"supported"`
	Ambiguous  bool    `json:"ambiguous,omitempty"`
}

// JSONOutput represents the full JSON output.
type JSONOutput struct {
	File            string      `json:"file"`
	RecommendedMode string      `json:"recommended_mode"`
	SampledLines    int         `json:"sampled_lines"`
	StructuredLines int         `json:"structured_lines"`
	StructuredTimed int         `json:"structured_timed"`
	ParsedLines     int         `json:"parsed_lines"`
	Matches         []JSONMatch `json:"matches"`
	Notes           []string    `json:"notes,omitempty"`
}

func outputDetectJSON(w io.Writer, result *detector.DetectionResult, logFile string, opts *DetectOptions) error {
	out := JSONOutput{
		File:            logFile,
		RecommendedMode: string(result.Recommended),
		SampledLines:    result.SampledLines,
		StructuredLines: result.StructuredLines,
		StructuredTimed: result.StructuredTimed,
		ParsedLines:     result.ParsedLines,
		Matches:         make([]JSONMatch, 0),
		Notes:           result.Notes,
	}

	matches := result.Matches
	if !opts.ShowAll && len(matches) > 1 {
		matches = matches[:1]
	}

	for _, m := range matches {
		out.Matches = append(out.Matches, JSONMatch{
			Name:       m.Format.Name,
			Pattern:    m.Format.PatternStr,
			Confidence: m.Confidence,
			MatchCount: m.MatchCount,
			SampleLine: m.SampleLine,
			Supported:  m.Format.Supported,
			Ambiguous:  m.Format.Ambiguous,
		})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

// writeStarterConfig generates a starter config file for the detected layout.
func writeStarterConfig(result *detector.DetectionResult, logFile, configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", configPath)
	}

	if result.SampledLines == 0 {
		return fmt.Errorf("cannot generate config: %s has no lines", logFile)
	}

	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(configPath, []byte(generateStarterConfig(logFile, result)), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// generateStarterConfig creates a YAML config template.
func generateStarterConfig(logFile string, result *detector.DetectionResult) string {
	absLogFile := logFile
	if abs, err := filepath.Abs(logFile); err == nil {
		absLogFile = abs
	}

	policy := acceptance.DefaultPolicy()

	return fmt.Sprintf(`# fwtriage configuration
# Generated by: fwtriage detect %s
# Structured lines: %.0f%%, lines with timestamps: %.0f%%

mode: %s
window_threshold: %d

acceptance:
  firmware_issue: %d
  voltage_warning: %d
  sensor_error: %d

extensions:
  - .txt
  - .log

# Extra regex rules, merged over the built-in table in order:
# rule_files:
#   - rules/custom.yaml

# Keyword table for keyword mode (replaces the built-in one):
# keywords:
#   - category: sensor_error
#     keywords: ["sensor failed", "sensor timeout"]

# webhooks:
#   - name: release-gate
#     url: https://ci.example.com/hooks/fwtriage
#     trigger: on_reject
`, absLogFile,
		result.StructuredShare()*100, result.TimestampShare()*100,
		result.Recommended,
		events.DefaultThreshold,
		policy.FirmwareIssue, policy.VoltageWarning, policy.SensorError)
}
