package classify

import "strings"

// KeywordGroup binds a category to the substrings that identify it.
type KeywordGroup struct {
	Category Category
	Keywords []string
}

// DefaultKeywords returns the built-in keyword table.
// Order matters: the first group with a matching keyword wins.
func DefaultKeywords() []KeywordGroup {
	return []KeywordGroup{
		{Category: SensorError, Keywords: []string{"sensor failed", "temperature fault"}},
		{Category: VoltageWarning, Keywords: []string{"voltage drop", "low voltage"}},
		{Category: CommunicationError, Keywords: []string{"timeout", "communication lost", "no response", "can-bus"}},
		{Category: FirmwareIssue, Keywords: []string{"firmware exception", "assertion failed"}},
		{Category: CollisionError, Keywords: []string{"collision", "obstacle"}},
	}
}

// KeywordClassifier classifies whole lines by case-insensitive substring
// search over an ordered keyword table.
type KeywordClassifier struct {
	groups []KeywordGroup
}

// NewKeywordClassifier creates a classifier over the given groups.
// Passing no groups uses DefaultKeywords.
func NewKeywordClassifier(groups ...KeywordGroup) *KeywordClassifier {
	if len(groups) == 0 {
		groups = DefaultKeywords()
	}

	lowered := make([]KeywordGroup, 0, len(groups))
	for _, g := range groups {
		kws := make([]string, 0, len(g.Keywords))
		for _, kw := range g.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		lowered = append(lowered, KeywordGroup{Category: g.Category, Keywords: kws})
	}

	return &KeywordClassifier{groups: lowered}
}

// Classify returns the first category whose keyword list matches the line.
// Lines without a keyword match fall back to generic_error when they mention
// "error", and to info otherwise.
func (k *KeywordClassifier) Classify(line string) Category {
	lower := strings.ToLower(line)

	for _, g := range k.groups {
		for _, kw := range g.Keywords {
			if strings.Contains(lower, kw) {
				return g.Category
			}
		}
	}

	if strings.Contains(lower, "error") {
		return GenericError
	}
	return Info
}

// Groups returns a copy of the keyword table in evaluation order.
func (k *KeywordClassifier) Groups() []KeywordGroup {
	out := make([]KeywordGroup, len(k.groups))
	for i, g := range k.groups {
		out[i] = KeywordGroup{Category: g.Category, Keywords: append([]string(nil), g.Keywords...)}
	}
	return out
}
