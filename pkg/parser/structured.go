package parser

import (
	"regexp"
	"strings"
)

// Canonical level tokens.
const (
	LevelTrace    = "TRACE"
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarn     = "WARN"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

const levelTokens = `WARNING|WARN|ERROR|ERR|INFO|NOTICE|DEBUG|TRACE|CRITICAL|CRIT|FATAL|ALERT|EMERG|PANIC`

// reStructured matches: optional (bracketed) timestamp, a bracketed or bare
// level token, then the message. Dash or colon separators are tolerated.
//
//	[2025-05-21 10:01:00] ERROR CAN-Bus timeout on channel 4
//	[2025-05-21 10:01:00] [WARN] Voltage drop detected
//	2024-01-01 10:00:00 - ERROR - Sensor failure
//	[ERROR] CAN-Bus timeout on channel 4
var reStructured = regexp.MustCompile(
	`^\s*` +
		`(?:\[?` + TimestampPattern + `\]?\s*(?:-\s*)?)?` +
		`(?:\[(?i:(` + levelTokens + `))\]|(?i:(` + levelTokens + `))\b)` +
		`\s*(?:[-:]\s*)?` +
		`(.*)$`)

// ParseStructured decomposes a line with the structured grammar.
// It reports false when the line does not fit; such lines produce no row.
// A timestamp that matches the shape but is not a valid date is left unset.
func ParseStructured(line LogLine) (StructuredLine, bool) {
	m := reStructured.FindStringSubmatch(line.Content)
	if m == nil {
		return StructuredLine{}, false
	}

	out := StructuredLine{
		Line:    line,
		Message: strings.TrimSpace(m[4]),
	}

	level := m[2]
	if level == "" {
		level = m[3]
	}
	out.Level = CanonicalLevel(level)

	if m[1] != "" {
		out.Timestamp, out.HasTimestamp = defaultExtractor.Extract(m[1])
	}

	return out, true
}

// CanonicalLevel normalizes a level token. Unknown tokens map to INFO.
func CanonicalLevel(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case LevelTrace:
		return LevelTrace
	case LevelDebug:
		return LevelDebug
	case LevelInfo, "NOTICE":
		return LevelInfo
	case LevelWarn, "WARNING":
		return LevelWarn
	case LevelError, "ERR":
		return LevelError
	case LevelCritical, "CRIT", "FATAL", "ALERT", "EMERG", "PANIC":
		return LevelCritical
	default:
		return LevelInfo
	}
}

// IsInformational reports whether a canonical level carries no error signal.
func IsInformational(level string) bool {
	return level == LevelTrace || level == LevelDebug || level == LevelInfo
}
