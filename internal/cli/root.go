// Package cli provides the command-line interface for fwtriage.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ccollicutt/fwtriage/internal/cli/commands"
	"github.com/ccollicutt/fwtriage/internal/cli/plugins"
	"github.com/ccollicutt/fwtriage/internal/logging"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	return run(os.Args[1:])
}

func run(args []string) int {
	g := &commands.GlobalOptions{}
	rootCmd := NewRootCommand(g)
	rootCmd.SetArgs(args)

	// Plugins are only tried for the first non-flag word when no built-in
	// command claims it. Global flags before it are consumed here.
	configPath, rest := splitGlobalFlags(args)
	if name, ok := pluginCandidate(rootCmd, rest); ok {
		if pluginPath, err := plugins.FindPlugin(name); err == nil {
			return plugins.Execute(context.Background(), pluginPath, rest[1:], configPath)
		}
	}

	if err := rootCmd.Execute(); err != nil {
		if name, ok := pluginCandidate(rootCmd, rest); ok {
			_, _ = fmt.Fprintln(os.Stderr, plugins.FormatNotFoundError(name))
			return 2
		}
		// SilenceErrors prevents Cobra from printing this
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return commands.ExitCode
}

// splitGlobalFlags parses the root flags that precede the first non-flag
// argument and returns --config and the remaining arguments.
func splitGlobalFlags(args []string) (string, []string) {
	fs := pflag.NewFlagSet("fwtriage", pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	configPath := fs.StringP("config", "c", os.Getenv(plugins.EnvConfig), "")
	fs.String("log-level", "", "")
	fs.String("log-format", "", "")

	if err := fs.Parse(args); err != nil {
		return "", args
	}
	return *configPath, fs.Args()
}

func pluginCandidate(rootCmd *cobra.Command, args []string) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	name := args[0]
	if name == "" || name[0] == '-' || isBuiltinCommand(rootCmd, name) {
		return "", false
	}
	return name, true
}

// isBuiltinCommand checks if a command name is a built-in cobra command.
func isBuiltinCommand(rootCmd *cobra.Command, name string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == name || cmd.HasAlias(name) {
			return true
		}
	}
	return name == "help" || name == "completion"
}

// NewRootCommand creates the root cobra command.
func NewRootCommand(g *commands.GlobalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fwtriage",
		Short: "Triage firmware test logs before release",
		Long: `fwtriage classifies the errors in firmware test logs and decides whether a
build may be released.

It reports:
  - Error counts per category (sensor, voltage, communication, firmware, collision)
  - Hourly windows where one category crosses a threshold
  - An ACCEPTED / REJECTED verdict against per-category limits
  - Frequent unclassified messages, as candidate rules

Custom regex rules are loaded from YAML or JSON files listed in the config.

PLUGINS:
  Unknown commands run a standalone binary named fwtriage-<command>.
  Charts, heatmaps and PDF bundles are rendered this way from exported tables.

  Plugin locations (searched in order):
    1. Same directory as the fwtriage binary
    2. ~/.fwtriage/plugins/ (or $FWTRIAGE_PLUGIN_DIR)
    3. Anywhere in PATH

  Available plugins:
    render   Heatmaps, category charts and PDF release bundles`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&g.ConfigPath, "config", "c", os.Getenv(plugins.EnvConfig), "Config file (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&g.LogLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&g.LogFormat, "log-format", logging.FormatText, "Log format (text|json)")

	rootCmd.AddCommand(commands.NewAnalyzeCommand(g))
	rootCmd.AddCommand(commands.NewCompareCommand(g))
	rootCmd.AddCommand(commands.NewSuggestCommand(g))
	rootCmd.AddCommand(commands.NewRulesCommand(g))
	rootCmd.AddCommand(commands.NewDetectCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand(g))
	rootCmd.AddCommand(commands.NewValidateCommand(g))
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
