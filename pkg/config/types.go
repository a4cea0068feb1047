// Package config provides configuration loading and validation for fwtriage.
package config

import (
	"time"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/classify"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// RuleFiles are external rule sources merged over the built-in table in
	// order. Later files override earlier labels.
	RuleFiles []string `yaml:"rule_files,omitempty"`

	// Mode is the classification path for analyze: keyword or structured.
	Mode string `yaml:"mode,omitempty"`

	// WindowThreshold is the minimum events per hour and category for a
	// critical window.
	WindowThreshold int `yaml:"window_threshold,omitempty"`

	// Acceptance holds the release rejection limits.
	Acceptance acceptance.Policy `yaml:"acceptance,omitempty"`

	// Extensions are the file extensions compare picks up.
	Extensions []string `yaml:"extensions,omitempty"`

	// Keywords replaces the built-in keyword table when set.
	Keywords []KeywordConfig `yaml:"keywords,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// KeywordConfig is one entry of the ordered keyword table.
type KeywordConfig struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// KeywordClassifier builds the keyword classifier for the configuration.
func (c *Config) KeywordClassifier() *classify.KeywordClassifier {
	groups := make([]classify.KeywordGroup, 0, len(c.Keywords))
	for _, k := range c.Keywords {
		groups = append(groups, classify.KeywordGroup{Category: classify.Category(k.Category), Keywords: k.Keywords})
	}
	return classify.NewKeywordClassifier(groups...)
}

// RuleSources returns a FileSource per configured rule file, in order.
func (c *Config) RuleSources() []classify.Source {
	sources := make([]classify.Source, 0, len(c.RuleFiles))
	for _, path := range c.RuleFiles {
		sources = append(sources, classify.FileSource{Path: path})
	}
	return sources
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnReject fires only when the release is rejected (default).
	WebhookTriggerOnReject WebhookTrigger = "on_reject"
	// WebhookTriggerAlways fires after every analysis.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines a webhook endpoint for sending analysis results.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_reject" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
