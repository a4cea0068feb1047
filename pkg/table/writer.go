package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format is an export format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for any format other than csv or json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat validates a format name (case-insensitive, leading dot allowed).
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q (use csv or json)", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Write encodes t to path. The format is checked before the file is created.
func Write(path string, format Format, t *Table) error {
	if _, err := ParseFormat(string(format)); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(&buf, format, t); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- exported reports are meant to be shared
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Encode writes t to w in the given format.
func Encode(w io.Writer, format Format, t *Table) error {
	switch format {
	case FormatCSV:
		return encodeCSV(w, t)
	case FormatJSON:
		return encodeJSON(w, t)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func encodeCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = Cell(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// encodeJSON writes an array of objects whose keys follow column order.
func encodeJSON(w io.Writer, t *Table) error {
	var buf bytes.Buffer
	buf.WriteString("[")
	for r, row := range t.Rows {
		if r > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  {")
		for i, col := range t.Columns {
			if i > 0 {
				buf.WriteString(", ")
			}
			key, err := json.Marshal(col)
			if err != nil {
				return fmt.Errorf("encoding column %q: %w", col, err)
			}

			var v any
			if i < len(row) {
				v = row[i]
			}
			if ts, ok := v.(time.Time); ok {
				v = ts.Format(TimeLayout)
			}
			val, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encoding column %q: %w", col, err)
			}

			buf.Write(key)
			buf.WriteString(": ")
			buf.Write(val)
		}
		buf.WriteString("}")
	}
	if len(t.Rows) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("]\n")

	_, err := w.Write(buf.Bytes())
	return err
}
