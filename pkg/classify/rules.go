package classify

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CatchAllPattern matches every message. The rule carrying it is labelled
// generic_error and is always evaluated last.
const CatchAllPattern = `.*`

// ErrEmptyPattern is returned when a rule has no regex.
var ErrEmptyPattern = errors.New("pattern is empty")

// RuleSpec is an uncompiled (label, regex) pair as it appears in a rule source.
type RuleSpec struct {
	Label   Category `yaml:"label" json:"label"`
	Pattern string   `yaml:"pattern" json:"pattern"`
}

// Rule is a compiled pattern rule.
type Rule struct {
	Label   Category
	Pattern string
	// Source names the rule source that last defined this label.
	Source string

	re *regexp.Regexp
}

// Match reports whether the rule's regex occurs anywhere in msg, ignoring case.
func (r Rule) Match(msg string) bool {
	return r.re != nil && r.re.MatchString(msg)
}

// CompileRule compiles a RuleSpec into a case-insensitive, unanchored rule.
func CompileRule(spec RuleSpec, source string) (Rule, error) {
	label := Category(strings.TrimSpace(string(spec.Label)))
	if label == "" {
		return Rule{}, errors.New("label is empty")
	}
	if spec.Pattern == "" {
		return Rule{}, fmt.Errorf("rule %q: %w", label, ErrEmptyPattern)
	}

	re, err := regexp.Compile("(?i)" + spec.Pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("rule %q: invalid pattern: %w", label, err)
	}

	return Rule{Label: label, Pattern: spec.Pattern, Source: source, re: re}, nil
}

// DefaultRules returns the built-in regex rule table.
func DefaultRules() []RuleSpec {
	return []RuleSpec{
		{Label: "can_bus_timeout", Pattern: `can\s*-?bus\s+timeout\s+on\s+channel`},
		{Label: "firmware_exception", Pattern: `firmware\s+exception\s+at\s+address`},
		{Label: "obstacle_detected", Pattern: `obstacle\s+detected\s+near\s+waypoint`},
		{Label: "voltage_drop", Pattern: `voltage\s+drop\s+detected`},
		{Label: "sensor_failed", Pattern: `sensor\s+failed`},
		{Label: GenericError, Pattern: CatchAllPattern},
	}
}

// RuleSet is an immutable, ordered rule table. The first matching rule wins.
// It is built once at startup and shared read-only afterwards.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet compiles and merges the given RuleSpec lists in order. A label that
// appears again replaces the earlier definition in place; new labels are
// appended. The generic_error rule is moved to the end.
func NewRuleSet(source string, specs ...[]RuleSpec) (*RuleSet, error) {
	b := newBuilder()
	for _, list := range specs {
		rules, err := compileAll(list, source)
		if err != nil {
			return nil, err
		}
		b.add(rules...)
	}
	return b.build(), nil
}

// MustRuleSet is like NewRuleSet but panics on error. Intended for built-in tables.
func MustRuleSet(specs ...[]RuleSpec) *RuleSet {
	rs, err := NewRuleSet(SourceBuiltin, specs...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Classify returns the label of the first rule matching msg. When no rule
// matches, generic_error is returned, so every message resolves to a label.
func (s *RuleSet) Classify(msg string) Category {
	if label, ok := s.Match(msg); ok {
		return label
	}
	return GenericError
}

// Match returns the label of the first matching rule and whether any matched.
func (s *RuleSet) Match(msg string) (Category, bool) {
	if s == nil {
		return "", false
	}
	for _, r := range s.rules {
		if r.Match(msg) {
			return r.Label, true
		}
	}
	return "", false
}

// Rules returns the rules in evaluation order.
func (s *RuleSet) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Lookup returns the rule defined for label.
func (s *RuleSet) Lookup(label Category) (Rule, bool) {
	if s == nil {
		return Rule{}, false
	}
	for _, r := range s.rules {
		if r.Label == label {
			return r, true
		}
	}
	return Rule{}, false
}

// Len returns the number of rules.
func (s *RuleSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

func compileAll(specs []RuleSpec, source string) ([]Rule, error) {
	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		r, err := CompileRule(spec, source)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// builder accumulates rules with override-in-place semantics.
type builder struct {
	rules []Rule
	index map[Category]int
}

func newBuilder() *builder {
	return &builder{index: make(map[Category]int)}
}

func (b *builder) add(rules ...Rule) {
	for _, r := range rules {
		if i, ok := b.index[r.Label]; ok {
			b.rules[i] = r
			continue
		}
		b.index[r.Label] = len(b.rules)
		b.rules = append(b.rules, r)
	}
}

func (b *builder) build() *RuleSet {
	out := make([]Rule, 0, len(b.rules))
	var catchAll *Rule
	for i := range b.rules {
		if b.rules[i].Label == GenericError {
			catchAll = &b.rules[i]
			continue
		}
		out = append(out, b.rules[i])
	}
	if catchAll != nil {
		out = append(out, *catchAll)
	}
	return &RuleSet{rules: out}
}
