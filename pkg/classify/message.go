package classify

import "regexp"

// messagePatterns is the first classification layer for structured lines,
// tested in this order.
var messagePatterns = []struct {
	category Category
	re       *regexp.Regexp
}{
	{SensorError, regexp.MustCompile(`(?i)sensor (array failure|timeout|error|disconnected)`)},
	{VoltageWarning, regexp.MustCompile(`(?i)voltage (fluctuation|drop|issue)`)},
	{CommunicationError, regexp.MustCompile(`(?i)(communication link failure|disconnect|link error)`)},
	{FirmwareIssue, regexp.MustCompile(`(?i)firmware (update failed|error)`)},
	{CollisionError, regexp.MustCompile(`(?i)(obstacle detected|collision detected)`)},
}

// ClassifyMessage applies the fixed message-pattern table.
// It reports false when no pattern matches.
func ClassifyMessage(msg string) (Category, bool) {
	for _, p := range messagePatterns {
		if p.re.MatchString(msg) {
			return p.category, true
		}
	}
	return "", false
}

// ClassifyStructured runs the message-pattern table and falls back to the
// rule set. generic_error is returned only when both layers fail.
func ClassifyStructured(msg string, rules *RuleSet) Category {
	if c, ok := ClassifyMessage(msg); ok {
		return c
	}
	if c, ok := rules.Match(msg); ok {
		return c
	}
	return GenericError
}
