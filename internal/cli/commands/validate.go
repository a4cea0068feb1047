package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/fwtriage/pkg/config"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a configuration file and its rule files",
		Long: `Validate an fwtriage configuration file without running analysis.

The file is the argument, or --config when no argument is given.

Checks:
  - YAML syntax
  - Mode, window threshold and acceptance limits
  - Webhook URLs and triggers
  - Every rule file loads and every pattern compiles`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := g.configPath()
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(cmd, path, g)
		},
	}
}

func runValidate(cmd *cobra.Command, configPath string, g *GlobalOptions) error {
	ctx := commandContext(cmd)
	w := cmd.OutOrStdout()

	if configPath == "" {
		return fmt.Errorf("no config file given (pass a path or --config)")
	}

	logger, err := g.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	rules, results := loadRules(cfg, logger)
	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}

	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Mode:             %s\n", cfg.Mode)
	fmt.Fprintf(w, "  Window threshold: %d/hour\n", cfg.WindowThreshold)
	fmt.Fprintf(w, "  Acceptance:       firmware_issue %d, voltage_warning %d, sensor_error %d\n",
		cfg.Acceptance.FirmwareIssue, cfg.Acceptance.VoltageWarning, cfg.Acceptance.SensorError)
	fmt.Fprintf(w, "  Extensions:       %v\n", cfg.Extensions)
	fmt.Fprintf(w, "  Keyword groups:   %d\n", len(cfg.KeywordClassifier().Groups()))
	fmt.Fprintf(w, "  Webhooks:         %d\n", len(cfg.Webhooks))
	fmt.Fprintf(w, "  Rules in effect:  %d\n", rules.Len())

	fmt.Fprintf(w, "\nRule sources:\n")
	for i, res := range results {
		fmt.Fprintf(w, "  %d. %s\n", i+1, res)
	}

	if failed > 0 {
		return fmt.Errorf("validation failed: %d rule source(s) could not be loaded", failed)
	}
	return nil
}
