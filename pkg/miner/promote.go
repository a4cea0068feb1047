package miner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/fwtriage/pkg/classify"
)

// Promote merges suggestions into the YAML rule file at path and returns the
// number of rules added. Existing entries are kept as they are; new labels are
// appended in suggestion order. A missing file is created as a label to
// pattern mapping. A phrase list file gets the new phrases appended.
func Promote(path string, suggestions []Suggestion) (int, error) {
	root, err := readRuleDoc(path)
	if err != nil {
		return 0, err
	}

	existing := make(map[classify.Category]bool)
	switch root.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(root.Content); i += 2 {
			existing[classify.Category(root.Content[i].Value)] = true
		}
	case yaml.SequenceNode:
		for _, item := range root.Content {
			existing[classify.LabelFromPhrase(item.Value)] = true
		}
	default:
		return 0, fmt.Errorf("%s: rule file must be a mapping or a list", path)
	}

	added := 0
	for _, s := range suggestions {
		label := s.Label
		if label == "" {
			label = classify.LabelFromPhrase(s.Phrase)
		}
		if label == "" || existing[label] {
			continue
		}
		existing[label] = true

		if root.Kind == yaml.SequenceNode {
			root.Content = append(root.Content, scalar(s.Phrase))
		} else {
			pattern := s.Pattern
			if pattern == "" {
				pattern = classify.PatternFromPhrase(s.Phrase)
			}
			root.Content = append(root.Content, scalar(string(label)), scalar(pattern))
		}
		added++
	}

	if added == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return 0, fmt.Errorf("encoding rule file: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("encoding rule file: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- rule files are not secret
		return 0, fmt.Errorf("writing rule file: %w", err)
	}
	return added, nil
}

func readRuleDoc(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- rule file path comes from the command line
	if errors.Is(err, os.ErrNotExist) {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rule file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule file: %w", err)
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	return doc.Content[0], nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

// WriteSuggestions writes the suggested phrases as a JSON array, the format
// accepted by classify.FileSource.
func WriteSuggestions(path string, suggestions []Suggestion) error {
	phrases := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		phrases = append(phrases, s.Phrase)
	}

	data, err := json.MarshalIndent(phrases, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding suggestions: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { // #nosec G306 -- suggestion lists are not secret
		return fmt.Errorf("writing suggestions: %w", err)
	}
	return nil
}
