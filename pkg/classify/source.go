package classify

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SourceBuiltin names the built-in rule table in SourceResult and Rule.Source.
const SourceBuiltin = "builtin"

// Source supplies rule specs. Sources are merged in the order given to Load.
type Source interface {
	// Name identifies the source in results and log messages.
	Name() string

	// Load returns the source's rules in declaration order.
	Load() ([]RuleSpec, error)
}

// SourceResult reports how a single rule source was merged.
type SourceResult struct {
	Source string
	Rules  int
	Err    error
}

// OK reports whether the source contributed its rules.
func (r SourceResult) OK() bool {
	return r.Err == nil
}

func (r SourceResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: skipped (%v)", r.Source, r.Err)
	}
	return fmt.Sprintf("%s: %d rule(s)", r.Source, r.Rules)
}

// Load builds the process rule table from the built-in specs followed by each
// source in priority order. A source that is missing, malformed, or contains an
// invalid regex contributes nothing and is reported with its error; Load itself
// never fails.
func Load(builtin []RuleSpec, sources ...Source) (*RuleSet, []SourceResult) {
	b := newBuilder()
	results := make([]SourceResult, 0, len(sources)+1)

	base, err := compileAll(builtin, SourceBuiltin)
	if err != nil {
		// Built-in tables are constants; fall back to the shipped defaults.
		results = append(results, SourceResult{Source: SourceBuiltin, Err: err})
		base, _ = compileAll(DefaultRules(), SourceBuiltin)
	} else {
		results = append(results, SourceResult{Source: SourceBuiltin, Rules: len(base)})
	}
	b.add(base...)

	for _, src := range sources {
		res := SourceResult{Source: src.Name()}

		specs, err := src.Load()
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		rules, err := compileAll(specs, src.Name())
		if err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}

		b.add(rules...)
		res.Rules = len(rules)
		results = append(results, res)
	}

	return b.build(), results
}

// StaticSource serves an in-memory rule list.
type StaticSource struct {
	Label string
	Specs []RuleSpec
}

// Name returns the source label.
func (s StaticSource) Name() string {
	return s.Label
}

// Load returns a copy of the specs.
func (s StaticSource) Load() ([]RuleSpec, error) {
	return append([]RuleSpec(nil), s.Specs...), nil
}

// FileSource reads rules from a YAML or JSON file.
//
// Accepted layouts:
//   - a mapping of label to regex (order preserved)
//   - a list of phrases, each turned into a rule by PatternFromPhrase
type FileSource struct {
	Path string
}

// Name returns the file path.
func (s FileSource) Name() string {
	return s.Path
}

// Load reads and decodes the file.
func (s FileSource) Load() ([]RuleSpec, error) {
	data, err := os.ReadFile(s.Path) // #nosec G304 -- rule file paths come from config
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".json":
		return decodeJSONRules(data)
	default:
		return decodeYAMLRules(data)
	}
}

func decodeYAMLRules(data []byte) ([]RuleSpec, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.MappingNode:
		specs := make([]RuleSpec, 0, len(root.Content)/2)
		for i := 0; i+1 < len(root.Content); i += 2 {
			key, val := root.Content[i], root.Content[i+1]
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: rule %q: pattern must be a string", val.Line, key.Value)
			}
			specs = append(specs, RuleSpec{Label: Category(key.Value), Pattern: val.Value})
		}
		return specs, nil

	case yaml.SequenceNode:
		phrases := make([]string, 0, len(root.Content))
		for _, item := range root.Content {
			if item.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: phrase must be a string", item.Line)
			}
			phrases = append(phrases, item.Value)
		}
		return SpecsFromPhrases(phrases), nil

	default:
		return nil, errors.New("rule file must be a mapping of label to pattern or a list of phrases")
	}
}

func decodeJSONRules(data []byte) ([]RuleSpec, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}

	var specs []RuleSpec
	switch tok {
	case json.Delim('{'):
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("parsing rule file: %w", err)
			}
			label, _ := keyTok.(string)

			var pattern string
			if err := dec.Decode(&pattern); err != nil {
				return nil, fmt.Errorf("rule %q: pattern must be a string: %w", label, err)
			}
			specs = append(specs, RuleSpec{Label: Category(label), Pattern: pattern})
		}
		if err := expectEnd(dec, '}'); err != nil {
			return nil, err
		}
		return specs, nil

	case json.Delim('['):
		var phrases []string
		for dec.More() {
			var p string
			if err := dec.Decode(&p); err != nil {
				return nil, fmt.Errorf("phrase must be a string: %w", err)
			}
			phrases = append(phrases, p)
		}
		if err := expectEnd(dec, ']'); err != nil {
			return nil, err
		}
		return SpecsFromPhrases(phrases), nil

	default:
		return nil, errors.New("rule file must be a JSON object of label to pattern or an array of phrases")
	}
}

// expectEnd consumes the closing delimiter and requires nothing after it.
func expectEnd(dec *json.Decoder, closing json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("parsing rule file: %w", err)
	}
	if tok != closing {
		return fmt.Errorf("parsing rule file: expected %q, got %v", closing, tok)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("parsing rule file: unexpected content after the top-level value")
	}
	return nil
}
