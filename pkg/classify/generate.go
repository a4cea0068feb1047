package classify

import (
	"regexp"
	"strings"
)

var reNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// PatternFromPhrase turns a plain phrase into a whitespace-tolerant regex.
// Words are escaped and joined by \s+; hyphens inside a word become \s*-?,
// and the pair "can bus" is written as can\s*-?bus.
//
//	"can-bus timeout on channel" -> can\s*-?bus\s+timeout\s+on\s+channel
func PatternFromPhrase(phrase string) string {
	words := strings.Fields(strings.ToLower(phrase))

	parts := make([]string, 0, len(words))
	for i := 0; i < len(words); i++ {
		if words[i] == "can" && i+1 < len(words) && words[i+1] == "bus" {
			parts = append(parts, `can\s*-?bus`)
			i++
			continue
		}
		parts = append(parts, escapeWord(words[i]))
	}

	return strings.Join(parts, `\s+`)
}

func escapeWord(w string) string {
	pieces := strings.Split(w, "-")
	for i, p := range pieces {
		pieces[i] = regexp.QuoteMeta(p)
	}
	return strings.Join(pieces, `\s*-?`)
}

// LabelFromPhrase derives a rule label: lowercase, non-alphanumeric runs
// collapsed to "_".
func LabelFromPhrase(phrase string) Category {
	label := reNonAlnum.ReplaceAllString(strings.ToLower(phrase), "_")
	return Category(strings.Trim(label, "_"))
}

// SpecsFromPhrases converts phrases into rule specs, skipping blanks.
func SpecsFromPhrases(phrases []string) []RuleSpec {
	specs := make([]RuleSpec, 0, len(phrases))
	for _, p := range phrases {
		label := LabelFromPhrase(p)
		if label == "" {
			continue
		}
		specs = append(specs, RuleSpec{Label: label, Pattern: PatternFromPhrase(p)})
	}
	return specs
}
