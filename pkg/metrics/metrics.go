// Package metrics provides the Prometheus registry and /metrics endpoint of
// the agent monitor. All metrics are defined in their respective packages
// (client, table, accuracy) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by the agent monitor.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer paired with Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler returns the HTTP handler exposing all registered metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return ServeListener(ctx, ln)
}

// ServeListener exposes /metrics on ln until ctx is cancelled.
func ServeListener(ctx context.Context, ln net.Listener) error {
	logger := log.With().Str("component", "metrics").Logger()

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error().Err(err).Msg("Metrics server failed")
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown metrics server: %w", err)
		}
		logger.Info().Msg("Metrics server stopped")
		return nil
	}
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - agentmon_requests_total{endpoint, status} (Counter): Total requests by endpoint and HTTP status
//   - agentmon_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - agentmon_errors_total{class} (Counter): Errors by class (client, server, network, decode)
//
// Table Metrics (pkg/table):
//   - agentmon_table_rows_loaded_total{table} (Counter): Rows appended to a table
//   - agentmon_table_page_failures_total{table, error_class} (Counter): Failed page loads
//   - agentmon_table_stale_results_total{table} (Counter): Results discarded after a reconfiguration
//
// Accuracy Metrics (pkg/accuracy):
//   - agentmon_accuracy_retries_total{error_class} (Counter): Accuracy fetch retries
//   - agentmon_accuracy_retry_exhausted_total (Counter): Accuracy loads that failed after all attempts
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(agentmon_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(agentmon_request_duration_seconds_bucket[5m]))
//
//   # Page Failure Ratio per Table
//   sum by (table) (rate(agentmon_table_page_failures_total[5m])) /
//   sum by (table) (rate(agentmon_requests_total[5m]))
