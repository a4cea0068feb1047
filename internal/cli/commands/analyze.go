package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/fwtriage/pkg/analyzer"
	"github.com/ccollicutt/fwtriage/pkg/config"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/metrics"
	"github.com/ccollicutt/fwtriage/pkg/output"
	"github.com/ccollicutt/fwtriage/pkg/parser"
	"github.com/ccollicutt/fwtriage/pkg/table"
	"github.com/ccollicutt/fwtriage/pkg/webhook"
)

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	Output    string
	Mode      string
	Threshold int
	TimeRange string
	Verbose   bool
	Quiet     bool
	Suggest   bool
	MaxEvents int

	// Export options
	Export        string
	ExportWindows string
	Format        string
	MetricsFile   string

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(g *GlobalOptions) *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <log-file>...",
		Short: "Classify firmware log errors and decide on release",
		Long: `Classify the errors in one or more firmware logs, report hourly critical
windows, and decide whether the firmware may be released.

Arguments are files or glob patterns. All lines are analyzed together.

Modes:
  keyword     whole-line keyword matching (default)
  structured  timestamp/level/message grammar with regex rules

In structured mode events carry rule labels (firmware_exception, ...) rather
than base categories, so only sensor_error, voltage_warning and firmware_issue
labels count toward the release limits. A custom rule named after a base
category counts; built-in rule labels are reported but never reject a release.

Exit codes:
  0 - Release accepted
  1 - Release rejected
  2 - Configuration or runtime error`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVarP(&opts.Mode, "mode", "m", "", "Classification mode (keyword|structured), overrides config; structured rule labels only count toward limits when named after a base category")
	cmd.Flags().IntVarP(&opts.Threshold, "threshold", "t", 0, "Events per hour that make a window critical, overrides config")
	cmd.Flags().StringVar(&opts.TimeRange, "time-range", "", `Limit analysis to a time window ("2h" back from now, or "START,END")`)
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include every event in the report")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Verdict only")
	cmd.Flags().IntVar(&opts.MaxEvents, "max-events", 0, "Cap the verbose event listing (0 = all)")
	cmd.Flags().BoolVar(&opts.Suggest, "suggest", false, "Include frequent unclassified phrases")

	cmd.Flags().StringVar(&opts.Export, "export", "", "Write the event table to this file")
	cmd.Flags().StringVar(&opts.ExportWindows, "export-windows", "", "Write the hourly window table to this file")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Export format (csv|json), default from the file extension")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnReject), "When to fire webhook (on_reject|always|never)")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, g *GlobalOptions, opts *AnalyzeOptions) error {
	ctx := commandContext(cmd)

	// Export formats are checked before any log is read.
	eventsFormat, err := exportFormat(opts.Format, opts.Export)
	if err != nil {
		return err
	}
	windowsFormat, err := exportFormat(opts.Format, opts.ExportWindows)
	if err != nil {
		return err
	}

	formatter, err := createFormatter(opts)
	if err != nil {
		return err
	}

	logger, err := g.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}

	files, err := parser.ExpandGlobs(args)
	if err != nil {
		return fmt.Errorf("expanding log files: %w", err)
	}

	analyzerOpts, err := analyzerOptions(cfg, opts, logger)
	if err != nil {
		return err
	}

	rules, ruleResults := loadRules(cfg, logger)
	analyzerOpts = append(analyzerOpts, analyzer.WithRules(rules))

	var m *metrics.Metrics
	if opts.MetricsFile != "" {
		m = metrics.New()
		analyzerOpts = append(analyzerOpts, analyzer.WithMetrics(m))
	}

	a, err := analyzer.NewAnalyzer(analyzerOpts...)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	source := parser.NewFileSource(files)
	defer source.Close()

	result, err := a.AnalyzeSource(ctx, source)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.NewReport(result, g.configPath())
	report.SetRuleSources(ruleResults)

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.Export != "" {
		if err := table.Write(opts.Export, eventsFormat, result.Events.ToTable()); err != nil {
			return fmt.Errorf("exporting events: %w", err)
		}
		logger.Info("events exported", zap.String("path", opts.Export), zap.Int("rows", result.Events.Len()))
	}
	if opts.ExportWindows != "" {
		windows := events.Windows(result.Events)
		if err := table.Write(opts.ExportWindows, windowsFormat, events.WindowTable(windows)); err != nil {
			return fmt.Errorf("exporting windows: %w", err)
		}
		logger.Info("windows exported", zap.String("path", opts.ExportWindows), zap.Int("rows", len(windows)))
	}

	if m != nil {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	// Webhook failures are logged but don't change the verdict
	sendWebhooks(ctx, cfg, opts, report, logger, cmd.ErrOrStderr())

	if report.Rejected() {
		ExitCode = 1
	}

	return nil
}

func analyzerOptions(cfg *config.Config, opts *AnalyzeOptions, logger *zap.Logger) ([]analyzer.AnalyzerOption, error) {
	modeName := cfg.Mode
	if opts.Mode != "" {
		modeName = opts.Mode
	}
	mode, err := analyzer.ParseMode(modeName)
	if err != nil {
		return nil, err
	}

	threshold := cfg.WindowThreshold
	if opts.Threshold != 0 {
		if opts.Threshold < 1 {
			return nil, fmt.Errorf("invalid threshold %d: must be at least 1", opts.Threshold)
		}
		threshold = opts.Threshold
	}

	out := []analyzer.AnalyzerOption{
		analyzer.WithMode(mode),
		analyzer.WithThreshold(threshold),
		analyzer.WithPolicy(cfg.Acceptance),
		analyzer.WithKeywords(cfg.KeywordClassifier()),
		analyzer.WithSuggestions(opts.Suggest),
		analyzer.WithLogger(logger),
	}

	if opts.TimeRange != "" {
		start, end, err := parseTimeRange(opts.TimeRange, time.Now())
		if err != nil {
			return nil, err
		}
		out = append(out, analyzer.WithTimeRange(start, end))
	}

	return out, nil
}

// parseTimeRange accepts a duration back from now ("24h") or an explicit
// "START,END" pair in "2006-01-02 15:04:05" or RFC 3339 form. Either bound of
// a pair may be empty.
func parseTimeRange(s string, now time.Time) (time.Time, time.Time, error) {
	if !strings.Contains(s, ",") {
		d, err := time.ParseDuration(s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid time-range %q: %w", s, err)
		}
		if d <= 0 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid time-range %q: must be positive", s)
		}
		return now.Add(-d), now, nil
	}

	parts := strings.SplitN(s, ",", 2)
	var bounds [2]time.Time
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		t, err := parseTime(p)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid time-range %q: %w", s, err)
		}
		bounds[i] = t
	}
	return bounds[0], bounds[1], nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(parser.TimestampLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// exportFormat resolves the export format for path. An explicit --format
// wins; otherwise the extension decides. Only a path without an extension
// falls back to csv.
func exportFormat(flag, path string) (table.Format, error) {
	if flag != "" {
		return table.ParseFormat(flag)
	}
	if filepath.Ext(path) == "" {
		return table.FormatCSV, nil
	}
	return table.FormatFromPath(path)
}

func createFormatter(opts *AnalyzeOptions) (output.Formatter, error) {
	return output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose:   opts.Verbose,
		Quiet:     opts.Quiet,
		MaxEvents: opts.MaxEvents,
	})
}

// sendWebhooks sends the report to all configured webhooks.
// Errors are logged but don't fail the analysis.
func sendWebhooks(ctx context.Context, cfg *config.Config, opts *AnalyzeOptions, report *output.Report, logger *zap.Logger, status io.Writer) {
	webhooks := collectWebhooks(cfg, opts)
	if len(webhooks) == 0 {
		return
	}

	client := webhook.NewClient()

	for _, wh := range webhooks {
		if !shouldFireWebhook(wh.Trigger, report.Rejected()) {
			continue
		}

		resp := client.Send(ctx, report, webhook.SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			fmt.Fprintf(status, "Webhook %s: sent (%d, %s)\n", name, resp.StatusCode, resp.Duration)
			continue
		}
		fmt.Fprintf(status, "Webhook %s: failed (%v)\n", name, resp.Error)
		logger.Warn("webhook delivery failed",
			zap.String("webhook", name),
			zap.Int("status", resp.StatusCode),
			zap.Error(resp.Error))
	}
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *AnalyzeOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnReject
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// shouldFireWebhook determines if a webhook should fire for a verdict.
func shouldFireWebhook(trigger config.WebhookTrigger, rejected bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return rejected
	}
}
