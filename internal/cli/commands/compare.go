package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/fwtriage/pkg/compare"
	"github.com/ccollicutt/fwtriage/pkg/metrics"
	"github.com/ccollicutt/fwtriage/pkg/output"
	"github.com/ccollicutt/fwtriage/pkg/table"
)

// CompareOptions holds command-line options for the compare command.
type CompareOptions struct {
	Output      string
	Export      string
	Format      string
	MetricsFile string
}

// NewCompareCommand creates the compare command.
func NewCompareCommand(g *GlobalOptions) *cobra.Command {
	opts := &CompareOptions{}

	cmd := &cobra.Command{
		Use:   "compare <dir>",
		Short: "Compare error categories across the logs in a directory",
		Long: `Classify every log file directly inside a directory and list the number of
errors per file and category.

Only files with a configured extension (default .txt and .log) are read.
Files that cannot be read or contain no errors are skipped with a warning.

Example:
  fwtriage compare ./runs
  fwtriage compare ./runs --export comparison.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args[0], g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringVar(&opts.Export, "export", "", "Write the comparison table to this file")
	cmd.Flags().StringVar(&opts.Format, "format", "", "Export format (csv|json), default from the file extension")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")

	return cmd
}

func runCompare(cmd *cobra.Command, dir string, g *GlobalOptions, opts *CompareOptions) error {
	ctx := commandContext(cmd)

	format, err := exportFormat(opts.Format, opts.Export)
	if err != nil {
		return err
	}
	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
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

	cmpOpts := []compare.Option{
		compare.WithClassifier(cfg.KeywordClassifier()),
		compare.WithExtensions(cfg.Extensions),
		compare.WithLogger(logger),
	}

	var m *metrics.Metrics
	if opts.MetricsFile != "" {
		m = metrics.New()
		cmpOpts = append(cmpOpts, compare.WithMetrics(m))
	}

	res, err := compare.New(cmpOpts...).Compare(ctx, dir)
	if err != nil {
		return fmt.Errorf("comparing %s: %w", dir, err)
	}

	if err := output.FormatComparison(cmd.OutOrStdout(), opts.Output, res); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if opts.Export != "" {
		if err := table.Write(opts.Export, format, res.Table()); err != nil {
			return fmt.Errorf("exporting comparison: %w", err)
		}
		logger.Info("comparison exported", zap.String("path", opts.Export), zap.Int("rows", len(res.Rows)))
	}

	if m != nil {
		if err := m.WriteTextfile(opts.MetricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	return nil
}
