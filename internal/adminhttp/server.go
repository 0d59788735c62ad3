// Package adminhttp is the observability surface spec §1 excludes from the
// core (health checks, a JSON stats mirror, Prometheus scraping). Grounded
// on an internal/adapter/http-style package: gorilla/mux router,
// promhttp for metrics, a CORS-permissive middleware, and a health handler
// shaped the same way (status/timestamp/counts).
package adminhttp

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exprkv/exprkv/internal/engine"
)

// Server exposes /health, /v1/stats, and /metrics for a running engine.
type Server struct {
	engine  *engine.Server
	router  *mux.Router
	metrics *metrics
}

// NewServer builds the admin HTTP surface around a live engine.
func NewServer(eng *engine.Server) *Server {
	s := &Server{
		engine:  eng,
		router:  mux.NewRouter(),
		metrics: newMetrics(eng),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Handler returns the CORS-wrapped router, ready to hand to http.Server.
func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.router)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"timestamp":   time.Now().Unix(),
		"total_items": snap.NItems,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	snap := s.engine.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"time":            snap.Time,
		"started":         snap.Started,
		"total_items":     snap.NItems,
		"total_compressed": snap.NCompressed,
		"total_clients":   snap.NClients,
		"connections":     snap.Connections,
		"requests":        snap.Requests,
		"cron_done":       snap.CronDone,
		"first_item_seen": snap.FirstIn,
		"last_item_seen":  snap.LastIn,
		"memory_used":     snap.MemUsed,
		"memory_peak":     snap.MemPeak,
		"item_size_avg":   snap.SizeAvg,
		"compr_rate_avg":  snap.ComprAvg,
		"pool_used":       snap.PoolUsed,
		"pool_capacity":   snap.PoolCapacity,
	})
}
