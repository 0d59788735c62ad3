package adminhttp

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/exprkv/exprkv/internal/engine"
)

// metrics registers a handful of GaugeFuncs against a private Prometheus
// registry (rather than the global default, so multiple Servers in the same
// process — e.g. in tests — don't collide), each reading straight from the
// live engine snapshot at scrape time (see DESIGN.md).
type metrics struct {
	registry *prometheus.Registry
}

func newMetrics(eng *engine.Server) *metrics {
	registry := prometheus.NewRegistry()
	gauge := func(name, help string, get func(engine.Snapshot) float64) {
		registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Namespace: "exprkv", Name: name, Help: help},
			func() float64 { return get(eng.Snapshot()) },
		))
	}

	gauge("items_total", "Number of live keys in the index.", func(s engine.Snapshot) float64 {
		return float64(s.NItems)
	})
	gauge("items_compressed", "Number of items stored LZF-encoded.", func(s engine.Snapshot) float64 {
		return float64(s.NCompressed)
	})
	gauge("memory_used_bytes", "Sum of item footprints currently indexed.", func(s engine.Snapshot) float64 {
		return float64(s.MemUsed)
	})
	gauge("memory_peak_bytes", "High-water mark of memory_used_bytes.", func(s engine.Snapshot) float64 {
		return float64(s.MemPeak)
	})
	gauge("requests_total", "Requests dispatched since start.", func(s engine.Snapshot) float64 {
		return float64(s.Requests)
	})
	gauge("connections_total", "Connections accepted since start.", func(s engine.Snapshot) float64 {
		return float64(s.Connections)
	})
	gauge("compression_rate_avg", "Running pairwise average compression rate.", func(s engine.Snapshot) float64 {
		return s.ComprAvg
	})

	return &metrics{registry: registry}
}
