// Package monitor exposes a small HTTP surface while a run is in flight:
// liveness, Prometheus metrics, and a JSON snapshot of run progress.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RunSnapshot is the /runz payload.
type RunSnapshot struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	Pages      int       `json:"pages"`
	Listings   int       `json:"listings"`
	Duplicates int       `json:"duplicates"`
	Phase      string    `json:"phase"`
}

// Tracker holds the live snapshot the pipeline updates as it progresses.
type Tracker struct {
	mu   sync.RWMutex
	snap RunSnapshot
}

// NewTracker seeds the tracker with run identity.
func NewTracker(runID string, startedAt time.Time) *Tracker {
	return &Tracker{snap: RunSnapshot{RunID: runID, StartedAt: startedAt, Phase: "starting"}}
}

// Update applies a mutation under the lock.
func (t *Tracker) Update(fn func(*RunSnapshot)) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.snap)
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() RunSnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snap
}

// Server serves the monitor endpoints on a dedicated port.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds the router and binds it to the configured port.
func NewServer(port int, tracker *Tracker, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(recoverMiddleware(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/runz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tracker.Snapshot())
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler exposes the router for httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves in a background goroutine. ListenAndServe errors other than
// graceful shutdown are logged, not fatal; the scrape does not depend on the
// monitor being reachable.
func (s *Server) Start() {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Warn("monitor server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("monitor server listening", zap.String("addr", s.httpServer.Addr))
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown monitor server: %w", err)
	}
	return nil
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("monitor handler panic", zap.Any("panic", rec))
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
