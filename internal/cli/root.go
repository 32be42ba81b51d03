// SPDX-License-Identifier: Apache-2.0

// Package cli is the notaria-mcp command line: the stdio MCP server plus one
// subcommand per engine operation for scripting and debugging.
package cli

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/notariaproj/notaria-mcp/internal/config"
	"github.com/notariaproj/notaria-mcp/internal/engine"
	"github.com/notariaproj/notaria-mcp/internal/mapping"
	"github.com/notariaproj/notaria-mcp/internal/metrics"
	"github.com/notariaproj/notaria-mcp/internal/schema"
	"github.com/notariaproj/notaria-mcp/internal/tool"
	"github.com/notariaproj/notaria-mcp/internal/validation"
)

// Version is stamped at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// Execute runs the root command.
func Execute() error {
	return NewRoot().Execute()
}

// rootOptions are the persistent flags. Flags left unset keep the value read
// from the environment.
type rootOptions struct {
	envFile       string
	registryPath  string
	minSimilarity float64
	logLevel      string
}

// NewRoot builds the command tree.
func NewRoot() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:          "notaria-mcp",
		Short:        "Resolve and validate notarial template fields",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "environment file to load (default .env when present)")
	root.PersistentFlags().StringVar(&opts.registryPath, "registry", "", "schema registry YAML (overrides NOTARIA_REGISTRY_PATH)")
	root.PersistentFlags().Float64Var(&opts.minSimilarity, "min-similarity", mapping.DefaultMinSimilarity, "fuzzy mapping threshold (overrides NOTARIA_MIN_SIMILARITY)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (overrides NOTARIA_LOG_LEVEL)")

	root.AddCommand(
		ServeCmd(opts),
		TypesCmd(opts),
		ClassifyCmd(opts),
		MapCmd(opts),
		ValidateCmd(opts),
		UIFCmd(opts),
	)
	return root
}

// config loads the environment and applies the flags the user set.
func (o *rootOptions) config(cmd *cobra.Command) (*config.Config, error) {
	var files []string
	if o.envFile != "" {
		files = append(files, o.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("registry") {
		cfg.Registry.Path = o.registryPath
	}
	if flags.Changed("min-similarity") {
		cfg.Mapping.MinSimilarity = o.minSimilarity
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup builds the logger and engine for one command run.
func (o *rootOptions) setup(cmd *cobra.Command, m *metrics.Metrics) (*config.Config, *engine.Engine, *zap.Logger, error) {
	cfg, err := o.config(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := buildEngine(cfg, logger, m)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, e, logger, nil
}

// tools is setup for the one-shot commands, which run the MCP handlers
// directly so their JSON matches the server's.
func (o *rootOptions) tools(cmd *cobra.Command) (*tool.Tools, func(), error) {
	_, e, logger, err := o.setup(cmd, nil)
	if err != nil {
		return nil, nil, err
	}
	return tool.New(e, logger), func() { _ = logger.Sync() }, nil
}

// newLogger returns a production JSON logger on stderr; stdout belongs to the
// MCP transport and command output.
func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

func buildEngine(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*engine.Engine, error) {
	var (
		reg *schema.Registry
		err error
	)
	if cfg.Registry.Path != "" {
		reg, err = schema.LoadFile(cfg.Registry.Path)
	} else {
		reg, err = schema.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	return engine.New(reg,
		engine.WithLogger(logger),
		engine.WithMetrics(m),
		engine.WithMapper(mapping.New(mapping.WithMinSimilarity(cfg.Mapping.MinSimilarity))),
		engine.WithValidator(validation.New(validation.WithSettings(cfg.ValidationSettings()))),
		engine.WithReviewThresholds(cfg.Mapping.MaxUnmappedRatio, cfg.Validation.ReviewConfidence),
	)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
