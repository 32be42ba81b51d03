// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/notariaproj/notaria-mcp/internal/metrics"
	"github.com/notariaproj/notaria-mcp/internal/tool"
)

const shutdownTimeout = 5 * time.Second

// ServeCmd runs the MCP server on stdio.
func ServeCmd(opts *rootOptions) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			cfg, e, logger, err := opts.setup(cmd, metrics.New(reg))
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Server.MetricsAddr = metricsAddr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if cfg.Server.MetricsAddr != "" {
				srv := &http.Server{
					Addr:              cfg.Server.MetricsAddr,
					Handler:           metricsMux(reg),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					logger.Info("metrics.listening", zap.String("addr", srv.Addr))
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("metrics.server_failed", zap.Error(err))
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			logger.Info("server.starting",
				zap.String("version", Version),
				zap.Strings("document_types", documentTypeNames(e.Registry().AllTypes())),
			)
			server := tool.NewServer(e, logger, Version)
			err = server.Run(ctx, &mcp.StdioTransport{})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("server.stopped", zap.Error(err))
				return err
			}
			logger.Info("server.stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics listener (overrides NOTARIA_METRICS_ADDR)")
	return cmd
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
