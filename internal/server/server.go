// Package server exposes a read-only HTTP monitor for long sampler runs:
// liveness, run progress, and Prometheus metrics. It observes the chain
// through the sampler's progress callback and never feeds anything back into
// it.
package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/logging"
)

// Progress is a thread-safe snapshot of the run, updated once per outer
// measurement step by the sampler's progress callback and read by the
// /status handler.
type Progress struct {
	mu        sync.RWMutex
	started   time.Time
	step      int
	numSteps  int
	alpha     float64
	energy    float64
	measured  bool
	completed bool
}

// NewProgress creates a progress tracker for a run of numSteps outer steps.
func NewProgress(numSteps int) *Progress {
	return &Progress{
		started:  time.Now(),
		numSteps: numSteps,
	}
}

// Update records the latest measurement. It matches vmc.ProgressFunc.
func (p *Progress) Update(step int, alpha, energy float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.step = step
	p.alpha = alpha
	p.energy = energy
	p.measured = true
}

// Complete marks the run as finished.
func (p *Progress) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completed = true
}

// Status is the JSON document served at /status.
type Status struct {
	Status    string  `json:"status"`
	Step      int     `json:"step"`
	NumSteps  int     `json:"numsteps"`
	Alpha     float64 `json:"alpha,omitempty"`
	Energy    float64 `json:"energy,omitempty"`
	ElapsedMS int64   `json:"elapsed_ms"`
}

func (p *Progress) snapshot() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	st := Status{
		Status:    "running",
		NumSteps:  p.numSteps,
		ElapsedMS: time.Since(p.started).Milliseconds(),
	}
	if p.measured {
		st.Step = p.step + 1
		st.Alpha = p.alpha
		st.Energy = p.energy
	}
	if p.completed {
		st.Status = "completed"
	}
	return st
}

// Server is the HTTP run monitor.
type Server struct {
	logger   *logging.Logger
	progress *Progress
	gatherer prometheus.Gatherer
}

// New creates a monitor serving the given progress tracker and metrics
// gatherer.
func New(logger *logging.Logger, progress *Progress, gatherer prometheus.Gatherer) *Server {
	return &Server{
		logger:   logger,
		progress: progress,
		gatherer: gatherer,
	}
}

// Routes builds the monitor's router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.logger))
	r.Use(s.recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.progress.snapshot()); err != nil {
		s.logger.WithError(err).Error("encode status")
	}
}

// recoverer keeps a handler panic from taking the simulation down with it.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("recovered from panic", map[string]interface{}{
					"error":  rec,
					"method": r.Method,
					"path":   r.URL.Path,
				})
				http.Error(w, http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
