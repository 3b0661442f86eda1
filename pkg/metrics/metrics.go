// Package metrics exposes the Prometheus registry used by the order counter.
// All metrics are defined in their respective packages (client, pagination,
// ratelimit, runner, cache) to maintain modularity and avoid circular dependencies.
//
// This package provides the /metrics handler and documentation for all available metrics.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by the order counter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Path is where the metrics endpoint is mounted.
const Path = "/metrics"

// Handler returns the metrics HTTP handler.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(Path, promhttp.Handler())
	return mux
}

// Serve serves Handler on addr until ctx is done, then shuts down gracefully.
// It returns nil after a clean shutdown.
func Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	log.Info().Str("component", "metrics").Str("addr", ln.Addr().String()).Msg("Metrics endpoint listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - orders_page_requests_total{endpoint, status} (Counter): Requests by endpoint (page, domains) and HTTP status or error kind
//   - orders_page_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - orders_fetch_errors_total{kind} (Counter): Failed fetches by kind (http_status, timeout, connection, parse, unexpected_shape)
//
// Counting Metrics (pkg/pagination):
//   - orders_pages_total{outcome} (Counter): Pages evaluated by outcome (full, short, empty)
//   - orders_domains_total{status, reason} (Counter): Domains finished by status and termination reason
//   - orders_counted_total (Counter): Orders counted on successful domains
//
// Pacing Metrics (pkg/ratelimit):
//   - orders_throttle_pauses_total{rule} (Counter): Pauses by rule (long, short, domain)
//   - orders_throttle_seconds_total{rule} (Counter): Seconds spent pausing by rule
//
// Run Metrics (pkg/runner):
//   - orders_run_domains_remaining (Gauge): Domains left in the current run
//   - orders_run_eta_seconds (Gauge): Estimated seconds until the run finishes
//   - orders_run_duration_seconds (Histogram): Duration of completed runs
//
// Cache Metrics (pkg/cache):
//   - orders_cache_operations_total{operation, result} (Counter): get/set/delete by hit, miss, stale, ok, error
//   - orders_cache_fallbacks_total (Counter): Stale domain lists served after a directory failure
//
// Example Prometheus Queries:
//
//   # Fetch error rate by kind
//   sum by (kind) (rate(orders_fetch_errors_total[5m]))
//
//   # Share of domains that failed
//   sum(orders_domains_total{status="error"}) / sum(orders_domains_total)
//
//   # P95 page latency
//   histogram_quantile(0.95, rate(orders_page_request_duration_seconds_bucket{endpoint="page"}[5m]))
//
//   # Time spent throttled
//   sum(orders_throttle_seconds_total)
