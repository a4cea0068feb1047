package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ccollicutt/fwtriage/internal/logging"
	"github.com/ccollicutt/fwtriage/pkg/classify"
	"github.com/ccollicutt/fwtriage/pkg/config"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// GlobalOptions holds the persistent root flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

func (g *GlobalOptions) logger() (*zap.Logger, error) {
	if g == nil {
		return zap.NewNop(), nil
	}
	return logging.New(g.LogLevel, g.LogFormat)
}

func (g *GlobalOptions) configPath() string {
	if g == nil {
		return ""
	}
	return g.ConfigPath
}

// loadConfig reads --config, or the defaults when it is not set.
func (g *GlobalOptions) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, g.configPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// loadRules merges the built-in rules with the configured rule files.
// Sources that fail to load are logged and left out.
func loadRules(cfg *config.Config, logger *zap.Logger) (*classify.RuleSet, []classify.SourceResult) {
	rules, results := classify.Load(classify.DefaultRules(), cfg.RuleSources()...)
	for _, res := range results {
		if res.OK() {
			logger.Debug("rule source loaded", zap.String("source", res.Source), zap.Int("rules", res.Rules))
			continue
		}
		logger.Warn("rule source skipped", zap.String("source", res.Source), zap.Error(res.Err))
	}
	return rules, results
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
