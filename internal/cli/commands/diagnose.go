package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/config"
	"github.com/ccollicutt/fwtriage/pkg/detector"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand(g *GlobalOptions) *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose [log-file...]",
		Short: "Diagnose configuration, rule files and log files",
		Long: `Diagnose common problems before running analysis.

Checks:
  - Config file (from --config) loads and validates
  - Every rule source loads
  - Each given log file exists, is readable and carries timestamps
  - Webhook settings (and reachability with --verbose)

Example:
  fwtriage diagnose
  fwtriage --config fwtriage.yaml diagnose -v fw.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(commandContext(cmd), cmd.OutOrStdout(), g, args, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, g *GlobalOptions, logFiles []string, opts *DiagnoseOptions) error {
	var results []DiagnosticResult

	cfg, result := checkConfig(ctx, g.configPath())
	results = append(results, result)
	if result.Status == StatusError {
		printDiagnostics(w, results, opts)
		return nil
	}

	results = append(results, checkRuleSources(cfg)...)
	results = append(results, checkLogFiles(ctx, logFiles, opts)...)
	results = append(results, checkWebhooks(cfg, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfig(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{Check: "Config"}

	if path == "" {
		cfg, err := config.Load(ctx, "")
		if err != nil {
			result.Status = StatusError
			result.Message = fmt.Sprintf("Defaults rejected: %v", err)
			result.Suggests = []string{"Check FWTRIAGE_* environment variables"}
			return nil, result
		}
		result.Status = StatusOK
		result.Message = "No config file given, using defaults"
		return cfg, result
	}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'fwtriage detect <log-file> --write-config fwtriage.yaml' to generate a starter config",
		}
		return nil, result
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return nil, result
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		return nil, result
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "parsing") {
			result.Suggests = []string{"Check YAML syntax - ensure proper indentation (use spaces, not tabs)"}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = fmt.Sprintf("Loaded %s", path)
	result.Details = []string{
		fmt.Sprintf("Mode: %s", cfg.Mode),
		fmt.Sprintf("Rule files: %d", len(cfg.RuleFiles)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkRuleSources(cfg *config.Config) []DiagnosticResult {
	_, loaded := classify.Load(classify.DefaultRules(), cfg.RuleSources()...)

	results := make([]DiagnosticResult, 0, len(loaded))
	for _, res := range loaded {
		result := DiagnosticResult{Check: fmt.Sprintf("Rule Source: %s", res.Source)}
		if res.OK() {
			result.Status = StatusOK
			result.Message = fmt.Sprintf("%d rule(s)", res.Rules)
		} else {
			result.Status = StatusError
			result.Message = res.Err.Error()
			result.Suggests = []string{
				"The source is skipped during analysis; built-in rules still apply",
				"Rule files are a YAML/JSON mapping of label to regex, or a list of phrases",
			}
		}
		results = append(results, result)
	}
	return results
}

func checkLogFiles(ctx context.Context, logFiles []string, opts *DiagnoseOptions) []DiagnosticResult {
	if len(logFiles) == 0 {
		return nil
	}

	files, err := parser.ExpandGlobs(logFiles)
	if err != nil {
		return []DiagnosticResult{{
			Check:   "Log Files",
			Status:  StatusError,
			Message: err.Error(),
		}}
	}

	results := make([]DiagnosticResult, 0, len(files))
	for _, path := range files {
		results = append(results, checkLogFile(ctx, path, opts))
	}
	return results
}

func checkLogFile(ctx context.Context, path string, opts *DiagnoseOptions) DiagnosticResult {
	result := DiagnosticResult{Check: fmt.Sprintf("Log File: %s", path)}

	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		result.Status = StatusError
		result.Message = "File does not exist"
		return result
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access file: %v", err)
		return result
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
		result.Suggests = []string{"Use 'fwtriage compare <dir>' for directories"}
		return result
	case info.Size() == 0:
		result.Status = StatusWarning
		result.Message = "File is empty (0 bytes)"
		return result
	}

	det, err := detector.New().DetectFromFile(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot read file: %v", err)
		return result
	}

	share := det.TimestampShare()
	switch {
	case det.ParsedLines == 0:
		result.Status = StatusError
		result.Message = "No sampled line has a YYYY-MM-DD HH:MM:SS timestamp"
		result.Suggests = []string{"Lines without a timestamp produce no events"}
	case share < 0.5:
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Only %d/%d sampled lines have timestamps", det.ParsedLines, det.SampledLines)
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("%d/%d sampled lines have timestamps, recommended mode: %s",
			det.ParsedLines, det.SampledLines, det.Recommended)
	}

	if opts.Verbose || result.Status != StatusOK {
		result.Details = append(result.Details, det.Notes...)
	}
	return result
}

func checkWebhooks(cfg *config.Config, opts *DiagnoseOptions) []DiagnosticResult {
	var results []DiagnosticResult

	if len(cfg.Webhooks) == 0 {
		if opts.Verbose {
			results = append(results, DiagnosticResult{
				Check:   "Webhooks",
				Status:  StatusOK,
				Message: "No webhooks configured (optional)",
			})
		}
		return results
	}

	for _, wh := range cfg.Webhooks {
		name := webhookName(wh)
		result := DiagnosticResult{
			Check:   fmt.Sprintf("Webhook: %s", name),
			Status:  StatusOK,
			Message: fmt.Sprintf("Trigger: %s", wh.Trigger),
		}

		// config.Load already rejected bad URLs and triggers
		if opts.Verbose {
			result.Details = []string{
				fmt.Sprintf("URL: %s", wh.URL),
				fmt.Sprintf("Timeout: %s", wh.Timeout),
			}
			if wh.Token != "" {
				result.Details = append(result.Details, "Token: configured")
			}
		}
		results = append(results, result)
	}

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			result := checkWebhookConnectivity(wh)
			result.Check = fmt.Sprintf("Webhook Connectivity: %s", webhookName(wh))
			results = append(results, result)
		}
	}

	return results
}

func webhookName(wh config.WebhookConfig) string {
	if wh.Name != "" {
		return wh.Name
	}
	return wh.URL
}

func checkWebhookConnectivity(wh config.WebhookConfig) DiagnosticResult {
	result := DiagnosticResult{}

	client := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequest(http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}
	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := client.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{"Check if the webhook URL is correct", "Verify network connectivity"}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{"The endpoint may only accept POST"}
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== fwtriage Diagnostics ===")
	fmt.Fprintln(w)

	counts := map[string]int{}
	for _, r := range results {
		counts[r.Status]++

		icon := "PASS"
		switch r.Status {
		case StatusWarning:
			icon = "WARN"
		case StatusError:
			icon = "FAIL"
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}
		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n",
		counts[StatusOK], counts[StatusWarning], counts[StatusError])

	switch {
	case counts[StatusError] > 0:
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	case counts[StatusWarning] > 0:
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}
