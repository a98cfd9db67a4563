// Package observability exposes the pipeline's Prometheus metrics over
// HTTP. Components own their collectors; this package only aggregates
// them into one registry and serves the scrape endpoint.
package observability

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves a Prometheus scrape endpoint for a fixed set of
// collectors registered at construction.
type MetricsServer struct {
	addr     string
	path     string
	registry *prometheus.Registry
}

// NewMetricsServer builds a registry holding the given collectors plus
// the standard Go runtime and process collectors.
func NewMetricsServer(addr, path string, cs []prometheus.Collector) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, c := range cs {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return &MetricsServer{addr: addr, path: path, registry: registry}, nil
}

// Handler returns the scrape handler, for embedding into an existing mux.
func (m *MetricsServer) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Start serves the scrape endpoint on a background listener for the
// lifetime of the process.
func (m *MetricsServer) Start() {
	mux := http.NewServeMux()
	mux.Handle(m.path, m.Handler())
	go func() {
		if err := http.ListenAndServe(m.addr, mux); err != nil {
			slog.Warn("metrics listener stopped", "error", err)
		}
	}()
	slog.Info("metrics enabled", "addr", m.addr, "path", m.path)
}
