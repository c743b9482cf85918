// Package adminapi serves the optional admin surface: a JSON pool-stats
// snapshot, Prometheus metrics, health, and pprof. Off by default; the
// example binary wires it up when configured.
package adminapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gomysql/gomysql/internal/metrics"
	"github.com/gomysql/gomysql/internal/pool"
)

// StatsFunc returns the pool snapshot served at /pool/stats. Keeping it
// a function (rather than a *pool.Pool) lets applications aggregate or
// augment the snapshot before it is published.
type StatsFunc func() pool.Stats

// Server is the admin HTTP server.
type Server struct {
	stats      StatsFunc
	metrics    *metrics.Collector
	httpServer *http.Server
	startTime  time.Time
}

// NewServer creates an admin server publishing the given stats snapshot
// and metrics registry.
func NewServer(stats StatsFunc, m *metrics.Collector) *Server {
	return &Server{stats: stats, metrics: m, startTime: time.Now()}
}

// Start begins serving on bind:port in a background goroutine.
func (s *Server) Start(bind string, port int) error {
	r := mux.NewRouter()

	r.HandleFunc("/pool/stats", s.statsHandler).Methods("GET")
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))

	r.HandleFunc("/debug/pprof/", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/{name}", pprofByName)

	addr := fmt.Sprintf("%s:%d", bind, port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ln, err := newListener(addr)
	if err != nil {
		return fmt.Errorf("admin server listen on %s: %w", addr, err)
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			logServeError(err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the admin server.
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler returns a router serving /pool/stats, /health and /metrics
// without starting a listener, for embedding into an application's own
// HTTP server (and for tests). The pprof routes are registered only by
// Start.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/pool/stats", s.statsHandler).Methods("GET")
	r.HandleFunc("/health", s.healthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) statsHandler(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.stats()
	s.metrics.UpdatePoolStats(snapshot.Total, snapshot.Idle, snapshot.InUse,
		snapshot.PendingConns, snapshot.PendingRequests)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.startTime).Seconds()),
	})
}

func pprofByName(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	pprof.Handler(name).ServeHTTP(w, r)
}
