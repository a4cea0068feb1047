// Package miner surfaces frequent phrases from log messages that the rule
// table does not yet classify, so they can be reviewed and promoted into
// rules.
package miner

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// DefaultLimit is the number of phrases kept in the frequency table.
const DefaultLimit = 10

var rePhrase = regexp.MustCompile(`^\p{L}(?:[\p{L}\- ]*\p{L})?`)

// Suggestion is a frequent phrase and the rule it would become.
type Suggestion struct {
	Phrase  string            `json:"phrase" yaml:"phrase"`
	Count   int               `json:"count" yaml:"count"`
	Label   classify.Category `json:"label" yaml:"label"`
	Pattern string            `json:"pattern" yaml:"pattern"`
}

// ParseResult holds the rows parsed without categories. Suggestions is
// metadata for review and is not part of the rows.
type ParseResult struct {
	Rows        []parser.StructuredLine
	Suggestions []Suggestion
}

// Miner extracts phrase suggestions.
type Miner struct {
	limit int
	rules *classify.RuleSet
}

// Option configures a Miner.
type Option func(*Miner)

// WithLimit sets the size of the frequency table.
func WithLimit(n int) Option {
	return func(m *Miner) {
		if n > 0 {
			m.limit = n
		}
	}
}

// WithRules excludes messages that already resolve to a specific label,
// through either the message-pattern table or a non catch-all rule.
func WithRules(rs *classify.RuleSet) Option {
	return func(m *Miner) {
		m.rules = rs
	}
}

// New creates a Miner.
func New(opts ...Option) *Miner {
	m := &Miner{limit: DefaultLimit}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mine parses lines with the structured grammar in unclassified mode and
// attaches the most frequent leading phrases.
func (m *Miner) Mine(lines []parser.LogLine) *ParseResult {
	res := &ParseResult{}
	var messages []string
	for _, line := range lines {
		sl, ok := parser.ParseStructured(line)
		if !ok {
			continue
		}
		res.Rows = append(res.Rows, sl)
		if m.classified(sl.Message) {
			continue
		}
		messages = append(messages, sl.Message)
	}
	res.Suggestions = TopPhrases(messages, m.limit)
	return res
}

func (m *Miner) classified(msg string) bool {
	if m.rules == nil {
		return false
	}
	if _, ok := classify.ClassifyMessage(msg); ok {
		return true
	}
	label, ok := m.rules.Match(msg)
	return ok && label != classify.GenericError
}

// LeadingPhrase returns the run of letters, spaces and hyphens at the start
// of msg, normalized to NFC, case folded and with single spaces.
func LeadingPhrase(msg string) (string, bool) {
	raw := rePhrase.FindString(norm.NFC.String(strings.TrimSpace(msg)))
	if raw == "" {
		return "", false
	}
	return strings.Join(strings.Fields(cases.Fold().String(raw)), " "), true
}

// TopPhrases counts leading phrases and returns the limit most frequent,
// by count descending. Ties keep first-seen order.
func TopPhrases(messages []string, limit int) []Suggestion {
	if limit < 1 {
		limit = DefaultLimit
	}

	index := make(map[string]int)
	var all []Suggestion
	for _, msg := range messages {
		phrase, ok := LeadingPhrase(msg)
		if !ok {
			continue
		}
		if i, seen := index[phrase]; seen {
			all[i].Count++
			continue
		}
		index[phrase] = len(all)
		all = append(all, Suggestion{
			Phrase:  phrase,
			Count:   1,
			Label:   classify.LabelFromPhrase(phrase),
			Pattern: classify.PatternFromPhrase(phrase),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Count > all[j].Count
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}
