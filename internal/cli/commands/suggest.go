package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/fwtriage/pkg/miner"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// SuggestOptions holds command-line options for the suggest command.
type SuggestOptions struct {
	Output  string
	Limit   int
	Promote string
	JSONOut string
}

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand(g *GlobalOptions) *cobra.Command {
	opts := &SuggestOptions{}

	cmd := &cobra.Command{
		Use:   "suggest <log-file>",
		Short: "Suggest new rules from unclassified log messages",
		Long: `Parse a log with the structured grammar, collect the messages no rule
classifies, and rank their leading phrases by frequency.

Each suggestion comes with a rule label and a whitespace-tolerant pattern.
--promote merges them into a YAML rule file; add that file to rule_files in
the config to use the new rules on the next run.

Example:
  fwtriage suggest fw.log
  fwtriage suggest fw.log --limit 5 --promote rules/custom.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, args[0], g, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", miner.DefaultLimit, "Maximum number of suggestions")
	cmd.Flags().StringVar(&opts.Promote, "promote", "", "Merge the suggestions into this YAML rule file")
	cmd.Flags().StringVar(&opts.JSONOut, "json-out", "", "Write the suggested phrases as a JSON list")

	return cmd
}

func runSuggest(cmd *cobra.Command, path string, g *GlobalOptions, opts *SuggestOptions) error {
	ctx := commandContext(cmd)

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}
	if opts.Limit < 1 {
		return fmt.Errorf("invalid limit %d: must be at least 1", opts.Limit)
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
	rules, _ := loadRules(cfg, logger)

	lines, err := parser.ReadLines(ctx, path)
	if err != nil {
		return err
	}

	result := miner.New(miner.WithLimit(opts.Limit), miner.WithRules(rules)).Mine(lines)
	logger.Debug("suggestions mined",
		zap.String("file", path),
		zap.Int("structured_rows", len(result.Rows)),
		zap.Int("suggestions", len(result.Suggestions)))

	out := cmd.OutOrStdout()
	if opts.Output == "json" {
		if err := writeSuggestionsJSON(out, result.Suggestions); err != nil {
			return err
		}
	} else {
		writeSuggestionsText(out, path, result)
	}

	if opts.JSONOut != "" {
		if err := miner.WriteSuggestions(opts.JSONOut, result.Suggestions); err != nil {
			return err
		}
	}

	if opts.Promote != "" {
		added, err := miner.Promote(opts.Promote, result.Suggestions)
		if err != nil {
			return fmt.Errorf("promoting suggestions: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Promoted %d rule(s) to %s\n", added, opts.Promote)
	}

	return nil
}

func writeSuggestionsText(w io.Writer, path string, result *miner.ParseResult) {
	fmt.Fprintln(w, "=== fwtriage Rule Suggestions ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", path)
	fmt.Fprintf(w, "Structured lines: %d\n", len(result.Rows))
	fmt.Fprintln(w)

	if len(result.Suggestions) == 0 {
		fmt.Fprintln(w, "No unclassified messages found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNT\tPHRASE\tLABEL\tPATTERN")
	for _, s := range result.Suggestions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Count, s.Phrase, s.Label, s.Pattern)
	}
	_ = tw.Flush()
}

func writeSuggestionsJSON(w io.Writer, suggestions []miner.Suggestion) error {
	if suggestions == nil {
		suggestions = []miner.Suggestion{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(suggestions)
}
