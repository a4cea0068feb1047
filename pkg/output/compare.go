package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ccollicutt/fwtriage/pkg/compare"
)

// FormatComparison renders a multi-file comparison as text or JSON.
func FormatComparison(w io.Writer, format string, res *compare.Result) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(res)
	case "text", "":
		return formatComparisonText(w, res)
	default:
		return fmt.Errorf("unknown output format %q (use text or json)", format)
	}
}

func formatComparisonText(w io.Writer, res *compare.Result) error {
	fmt.Fprintln(w, "=== fwtriage Comparison ===")
	fmt.Fprintln(w)

	if len(res.Rows) == 0 {
		fmt.Fprintln(w, "No valid data found")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "FILE\tCATEGORY\tCOUNT")
		for _, r := range res.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", r.File, r.Category, r.Count)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	for _, s := range res.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.File, s.Reason)
	}

	fmt.Fprintln(w, "---")
	_, err := fmt.Fprintf(w, "Summary: %s\n", res)
	return err
}
