package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/siherrmann/lexgraph/api"
	"github.com/siherrmann/lexgraph/core/retrieval"
	"github.com/spf13/cobra"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Starts the HTTP API with the retrieval endpoints
POST /api/retrieval/past-defenses and GET /api/retrieval/search,
ingestion at POST /api/arguments and Prometheus metrics at /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, logger, err := root.open()
			if err != nil {
				return err
			}
			defer l.Close()

			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			l.SetMetrics(retrieval.NewMetrics(registry))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return api.Serve(ctx, addr, api.NewRouter(l, registry, logger), logger)
		},
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	cmd.Flags().StringVar(&addr, "addr", ":"+port, "Listen address")

	return cmd
}
