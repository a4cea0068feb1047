package parser

import (
	"regexp"
	"time"
)

// Fixed timestamp format recognised anywhere in a line.
const (
	TimestampPattern = `(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`
	TimestampLayout  = "2006-01-02 15:04:05"
)

var defaultExtractor = NewTimestampExtractor(regexp.MustCompile(TimestampPattern), TimestampLayout)

// TimestampExtractor extracts and parses timestamps from log lines.
type TimestampExtractor struct {
	pattern *regexp.Regexp
	layout  string
}

// NewTimestampExtractor creates a new timestamp extractor.
// The first capture group of pattern holds the timestamp text.
func NewTimestampExtractor(pattern *regexp.Regexp, layout string) *TimestampExtractor {
	return &TimestampExtractor{
		pattern: pattern,
		layout:  layout,
	}
}

// Extract returns the first timestamp found in the line.
// Only the first match is considered; if it does not parse (for example
// 2025-02-30) the line has no timestamp. Parsed times are in UTC.
func (e *TimestampExtractor) Extract(line string) (time.Time, bool) {
	matches := e.pattern.FindStringSubmatch(line)
	if len(matches) < 2 {
		return time.Time{}, false
	}

	ts, err := time.Parse(e.layout, matches[1])
	if err != nil {
		return time.Time{}, false
	}

	return ts, true
}

// ExtractTimestamp uses the fixed YYYY-MM-DD HH:MM:SS format.
func ExtractTimestamp(line string) (time.Time, bool) {
	return defaultExtractor.Extract(line)
}
