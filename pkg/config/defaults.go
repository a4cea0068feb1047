package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ccollicutt/fwtriage/pkg/acceptance"
	"github.com/ccollicutt/fwtriage/pkg/events"
	"github.com/ccollicutt/fwtriage/pkg/parser"
)

// Default values for configuration.
const (
	DefaultMode           = "keyword"
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvPrefix          = "FWTRIAGE"
	EnvRuleFiles       = EnvPrefix + "_RULE_FILES"
	EnvMode            = EnvPrefix + "_MODE"
	EnvWindowThreshold = EnvPrefix + "_WINDOW_THRESHOLD"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		RuleFiles:       []string{},
		Mode:            DefaultMode,
		WindowThreshold: events.DefaultThreshold,
		Acceptance:      acceptance.DefaultPolicy(),
		Extensions:      append([]string(nil), parser.DefaultExtensions...),
	}
}

// applyEnvironmentOverrides applies FWTRIAGE_* environment variables.
// FWTRIAGE_RULE_FILES is a comma-separated list.
func (c *Config) applyEnvironmentOverrides() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for _, key := range []string{"rule_files", "mode", "window_threshold"} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	if v.IsSet("rule_files") {
		c.RuleFiles = splitList(v.GetString("rule_files"))
	}
	if v.IsSet("mode") {
		c.Mode = v.GetString("mode")
	}
	if v.IsSet("window_threshold") {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString("window_threshold")))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWindowThreshold, err)
		}
		c.WindowThreshold = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
