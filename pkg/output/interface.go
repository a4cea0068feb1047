package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders a release report.
type Formatter interface {
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds the event listing, rule sources and run metadata.
	Verbose bool

	// Quiet prints the verdict line only.
	Quiet bool

	// MaxEvents caps the verbose text event listing. Zero lists every event.
	MaxEvents int
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "text", "":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (use text or json)", name)
	}
}
