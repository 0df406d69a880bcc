// Package http exposes the monitor's read and action surface to the
// dashboard: positions, rates with trends, signals, usage, agent logs, cycle
// triggering, and scheduler control.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server settings. Write timeout is
// generous because POST /api/run blocks for the full orchestration call.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         7860,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// Server is the dashboard-facing HTTP server.
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	hub      *Hub
}

// NewServer wires the router, middleware, and routes.
func NewServer(cfg ServerConfig, handlers *Handlers) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: handlers,
		hub:      NewHub(),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Hub returns the websocket hub so the scheduler can broadcast cycle results.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Router returns the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/health", s.handlers.Health).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	s.router.HandleFunc("/ws", s.hub.Serve).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(jsonContentTypeMiddleware)

	api.HandleFunc("/positions", s.handlers.Positions).Methods("GET")
	api.HandleFunc("/portfolio/dv01", s.handlers.PortfolioDV01).Methods("GET")
	api.HandleFunc("/evaluate", s.handlers.Evaluate).Methods("POST")
	api.HandleFunc("/rates", s.handlers.Rates).Methods("GET")
	api.HandleFunc("/rates", s.handlers.IngestRate).Methods("POST")
	api.HandleFunc("/signals", s.handlers.Signals).Methods("GET")
	api.HandleFunc("/usage", s.handlers.Usage).Methods("GET")
	api.HandleFunc("/logs/{name}", s.handlers.Log).Methods("GET")
	api.HandleFunc("/run", s.handlers.Run).Methods("POST")
	api.HandleFunc("/scheduler/start", s.handlers.SchedulerStart).Methods("POST")
	api.HandleFunc("/scheduler/stop", s.handlers.SchedulerStop).Methods("POST")
	api.HandleFunc("/scheduler/status", s.handlers.SchedulerStatus).Methods("GET")
}

// ListenAndServe blocks serving requests until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.hub.Close()
		return s.server.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

func jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
