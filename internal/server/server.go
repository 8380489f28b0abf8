// Package server exposes the adapter's health and status HTTP endpoints for
// container probes and reverse-proxy checks.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Probe is the slice of the execution client the status endpoint needs.
type Probe interface {
	Name() string
	Ping(ctx context.Context) bool
}

type Server struct {
	probe     Probe
	logger    *zap.Logger
	router    *mux.Router
	version   string
	startedAt time.Time
	httpSrv   *http.Server
}

func New(probe Probe, logger *zap.Logger, version string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		probe:     probe,
		logger:    logger,
		router:    mux.NewRouter(),
		version:   version,
		startedAt: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	// Compatibility path for container health checks behind a path-prefixed
	// proxy.
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
}

func (s *Server) Handler(allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		return s.router
	}
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})
	return c.Handler(s.router)
}

func (s *Server) Start(addr string, allowedOrigins []string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(allowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger.Info("status server listening", zap.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

type statusResponse struct {
	Name              string `json:"name"`
	Version           string `json:"version"`
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
	UptimeSec         int64  `json:"uptime_sec"`
	Exchange          string `json:"exchange"`
	ExchangeReachable bool   `json:"exchange_reachable"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, statusResponse{
		Name:              "live-exec api",
		Version:           s.version,
		Status:            "running",
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		UptimeSec:         int64(time.Since(s.startedAt) / time.Second),
		Exchange:          s.probe.Name(),
		ExchangeReachable: s.probe.Ping(ctx),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
