package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ahrav/go-jury/infrastructure/middleware"
	"github.com/ahrav/go-jury/internal/application"
	"github.com/ahrav/go-jury/internal/server"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the jury over HTTP",
		Long: `Start an HTTP server exposing the jury.

Routes:
  GET  /healthz          Liveness and whether a jury is loaded
  GET  /v1/jury          Jury summary
  POST /v1/evaluate      Evaluate responses (?simple=true for the headline)
  POST /v1/aggregate     Aggregate caller-supplied evaluations
  GET  /v1/strategies    Voting methods and custom strategies
  GET  /metrics          Prometheus metrics

Without --config only aggregation, strategies, health and metrics work.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := middleware.NewPrometheusMetrics(reg)

			registry, err := newStrategyRegistry()
			if err != nil {
				return err
			}

			opts := []server.Option{
				server.WithAggregator(application.NewVotingAggregator(registry)),
				server.WithGatherer(reg),
				server.WithLogger(slog.Default()),
			}
			if configPath != "" {
				jury, err := buildJury(configPath, registry, a.newJurors, metrics)
				if err != nil {
					return err
				}
				opts = append(opts, server.WithJury(jury))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, server.New(opts...).HTTPServer(addr))
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the jury configuration")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")

	return cmd
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("jury server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down jury server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
