package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/siherrmann/lexgraph"
	"github.com/siherrmann/lexgraph/core/embedding"
	"github.com/siherrmann/lexgraph/helper"
	"github.com/siherrmann/lexgraph/model"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	configPath string
	memory     bool
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "lexgraph",
		Short: "Hybrid vector and graph retrieval of legal precedent arguments",
		Long: "lexgraph retrieves past argument bundles for a legal issue by combining\n" +
			"vector similarity over argument segments with traversal of the issue graph.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	cmd.Version = version

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "Retrieval config YAML (weights, hops, limits, timeouts)")
	f.BoolVar(&opts.memory, "memory", false, "Use in-memory backends instead of PostgreSQL")
	f.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newIngestCmd(opts))
	cmd.AddCommand(newRetrieveCmd(opts))
	cmd.AddCommand(newReindexCmd(opts))

	return cmd
}

func (o *rootOptions) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(o.logLevel))); err != nil {
		return nil, helper.NewError("log level", fmt.Errorf("%w: %v", helper.ErrConfiguration, err))
	}
	return lexgraph.NewLogger(level), nil
}

// open creates the facade over PostgreSQL or, with --memory, over in-memory backends.
func (o *rootOptions) open() (*lexgraph.Lexgraph, *slog.Logger, error) {
	logger, err := o.logger()
	if err != nil {
		return nil, nil, err
	}

	if !o.memory {
		l, err := lexgraph.NewLexgraphFromEnv(o.configPath, logger)
		return l, logger, err
	}

	config, err := model.LoadRetrievalConfig(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	embedConfig, err := embedding.NewConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	embedder, err := embedding.NewProviderFromConfig(*embedConfig)
	if err != nil {
		return nil, nil, err
	}

	l, err := lexgraph.NewInMemory(embedder, config, logger)
	return l, logger, err
}
