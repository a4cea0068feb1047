// Package parser provides log file reading and line parsing functionality.
package parser

import "time"

// LogLine is a raw log line with its origin.
type LogLine struct {
	// Content is the raw line text.
	Content string

	// Source is the file path this line came from (empty for in-memory text).
	Source string

	// LineNum is the 1-based line number in the source.
	LineNum int

	// Truncated is set when the line exceeded MaxLineSize.
	Truncated bool
}

// StructuredLine is a line decomposed by the structured grammar:
// optional timestamp, level token, free-form message.
type StructuredLine struct {
	Line LogLine

	// Timestamp is the parsed timestamp; valid only when HasTimestamp is true.
	Timestamp    time.Time
	HasTimestamp bool

	// Level is the canonical upper-case level token (ERROR, WARN, INFO, ...).
	Level string

	// Message is the text after the level token.
	Message string
}
