package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bridgehub/bridge/internal/cache"
	"github.com/bridgehub/bridge/internal/config"
	"github.com/bridgehub/bridge/internal/llm"
	"github.com/bridgehub/bridge/internal/metrics"
	"github.com/bridgehub/bridge/pkg/model"
)

// Asker answers questions
type Asker interface {
	Process(ctx context.Context, q model.QueryRequest) model.ResponseEnvelope
	ProcessBatch(ctx context.Context, reqs []model.QueryRequest, concurrency int) []model.ResponseEnvelope
}

// CacheAdmin exposes cache statistics and clearing
type CacheAdmin interface {
	Stats() cache.Stats
	Clear() error
}

// Check reports whether a dependency is ready
type Check func(ctx context.Context) error

// Deps are the collaborators behind the HTTP surface. Cache and Usage may be nil.
type Deps struct {
	Asker  Asker
	Cache  CacheAdmin
	Usage  *llm.UsageTracker
	Checks map[string]Check
}

// Server represents the API server
type Server struct {
	cfg    *config.Config
	router *chi.Mux
	deps   Deps
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		router: chi.NewRouter(),
		deps:   deps,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(corsMiddleware)
	s.router.Use(middleware.Timeout(s.requestTimeout()))
}

// requestTimeout leaves headroom over the pipeline's own deadline
func (s *Server) requestTimeout() time.Duration {
	if s.cfg != nil && s.cfg.Pipeline.RequestTimeout > 0 {
		return s.cfg.Pipeline.RequestTimeout + 5*time.Second
	}
	return 60 * time.Second
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.healthCheck)
	s.router.Get("/ready", s.readyCheck)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	// API v1
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/ask", s.ask)
		r.Post("/ask/batch", s.askBatch)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", s.cacheStats)
			r.Delete("/", s.clearCache)
		})

		r.Get("/usage", s.usage)
	})
}

// Health check handlers
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	failures := make(map[string]string)
	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not ready", "failures": failures})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// corsMiddleware allows browser clients on any origin
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
