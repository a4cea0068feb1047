package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ccollicutt/fwtriage/pkg/classify"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(g *GlobalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the classification rules in effect",
		Long: `List the merged regex rule table in evaluation order, with the source that
defined each rule, followed by the load result of every rule source.

Rule files listed in rule_files (or FWTRIAGE_RULE_FILES) override built-in
labels in place and append new ones before the generic_error catch-all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(cmd, g, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json)")

	return cmd
}

// ruleView is the JSON form of a rule.
type ruleView struct {
	Label   string `json:"label"`
	Pattern string `json:"pattern"`
	Source  string `json:"source"`
}

// sourceView is the JSON form of a rule source result.
type sourceView struct {
	Source string `json:"source"`
	Rules  int    `json:"rules"`
	Error  string `json:"error,omitempty"`
}

func runRules(cmd *cobra.Command, g *GlobalOptions, outputFormat string) error {
	ctx := commandContext(cmd)

	logger, err := g.logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	rules, results := loadRules(cfg, logger)

	switch outputFormat {
	case "json":
		return writeRulesJSON(cmd.OutOrStdout(), rules, results)
	case "text":
		return writeRulesText(cmd.OutOrStdout(), rules, results)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", outputFormat)
	}
}

func writeRulesText(w io.Writer, rules *classify.RuleSet, results []classify.SourceResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLABEL\tPATTERN\tSOURCE")
	for i, r := range rules.Rules() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, r.Label, r.Pattern, r.Source)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Sources:")
	for _, res := range results {
		fmt.Fprintf(w, "  %s\n", res)
	}
	return nil
}

func writeRulesJSON(w io.Writer, rules *classify.RuleSet, results []classify.SourceResult) error {
	out := struct {
		Rules   []ruleView   `json:"rules"`
		Sources []sourceView `json:"sources"`
	}{
		Rules:   make([]ruleView, 0, rules.Len()),
		Sources: make([]sourceView, 0, len(results)),
	}

	for _, r := range rules.Rules() {
		out.Rules = append(out.Rules, ruleView{Label: string(r.Label), Pattern: r.Pattern, Source: r.Source})
	}
	for _, res := range results {
		sv := sourceView{Source: res.Source, Rules: res.Rules}
		if res.Err != nil {
			sv.Error = res.Err.Error()
		}
		out.Sources = append(out.Sources, sv)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
