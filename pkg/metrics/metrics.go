// Package metrics exposes live search progress as Prometheus gauges. It is
// the producer-side counterpart of what the teacher's monitoring stack
// used as a query client: now that there is no external Prometheus server
// to poll, the dependency is repurposed into an exporter.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter owns the gauges a running evolution search updates and the
// optional HTTP server that exposes them.
type Exporter struct {
	Generation         prometheus.Gauge
	BestScore          prometheus.Gauge
	HarmonizerIteration prometheus.Gauge
	WorkerUtilization  prometheus.Gauge

	registry *prometheus.Registry
	server   *http.Server
}

// NewExporter registers the scheduler's gauges against a fresh registry
// (never the global default, so multiple runs in one process don't
// collide).
func NewExporter() *Exporter {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Exporter{
		Generation: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "focus_scheduler",
			Name:      "generation",
			Help:      "Current evolutionary-search generation.",
		}),
		BestScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "focus_scheduler",
			Name:      "best_score",
			Help:      "Best score observed so far (higher is better).",
		}),
		HarmonizerIteration: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "focus_scheduler",
			Name:      "harmonizer_iteration",
			Help:      "Main-loop iteration count of the most recently reporting harmonizer run.",
		}),
		WorkerUtilization: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "focus_scheduler",
			Name:      "worker_utilization",
			Help:      "Fraction of the worker pool currently busy evaluating an individual.",
		}),
		registry: reg,
	}
}

// Serve starts the /metrics HTTP endpoint on addr. It returns once the
// listener is closed or ctx is canceled.
func (e *Exporter) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{}))
	e.server = &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return e.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
