package detector

import "regexp"

// TimestampFormat is a timestamp shape recognized when sampling a log.
type TimestampFormat struct {
	Name       string         // Human-readable name
	Pattern    *regexp.Regexp // Compiled regex (set during init)
	PatternStr string         // Pattern string, first group is the timestamp
	Layout     string         // Go time layout for parsing
	Example    string         // Example timestamp
	Supported  bool           // True if the pipeline extracts this shape
	Ambiguous  bool           // True if format has date ordering ambiguity (MM/DD vs DD/MM)
}

// DefaultFormats returns the timestamp shapes to detect, more specific first.
// Only the "YYYY-MM-DD HH:MM:SS" datetime is extracted by the pipeline; the
// others are recognized so a report can say why events would be dropped.
func DefaultFormats() []*TimestampFormat {
	formats := []*TimestampFormat{
		{
			Name:       "Bracketed datetime",
			PatternStr: `^\s*\[(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})\]`,
			Layout:     "2006-01-02 15:04:05",
			Example:    "[2025-05-21 10:01:00]",
			Supported:  true,
		},
		{
			Name:       "Datetime",
			PatternStr: `(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2})`,
			Layout:     "2006-01-02 15:04:05",
			Example:    "2025-05-21 10:01:00",
			Supported:  true,
		},
		{
			Name:       "ISO 8601 with Z (UTC)",
			PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?Z)`,
			Layout:     "2006-01-02T15:04:05Z07:00",
			Example:    "2025-05-21T10:01:00Z",
		},
		{
			Name:       "ISO 8601",
			PatternStr: `^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2})`,
			Layout:     "2006-01-02T15:04:05",
			Example:    "2025-05-21T10:01:00",
		},
		{
			Name:       "Syslog (BSD)",
			PatternStr: `^(\w{3}\s+\d{1,2}\s+\d{2}:\d{2}:\d{2})`,
			Layout:     "Jan 2 15:04:05",
			Example:    "May 21 10:01:00",
		},
		{
			Name:       "Uptime seconds",
			PatternStr: `^\[\s*(\d+\.\d{3,6})\]`,
			Layout:     "UPTIME",
			Example:    "[   12.345678]",
		},
		{
			Name:       "Unix timestamp (seconds)",
			PatternStr: `^(\d{10})(?:\s|$|\])`,
			Layout:     "UNIX_SECONDS",
			Example:    "1747821660",
		},
		{
			Name:       "US date format (MM/DD/YYYY)",
			PatternStr: `^(\d{2}/\d{2}/\d{4}\s+\d{2}:\d{2}:\d{2})`,
			Layout:     "01/02/2006 15:04:05",
			Example:    "05/21/2025 10:01:00",
			Ambiguous:  true,
		},
	}

	for _, f := range formats {
		f.Pattern = regexp.MustCompile(f.PatternStr)
	}

	return formats
}
