package api

import (
	"context"
	"net/http"
	"time"

	"github.com/ignite/marketpulse/internal/config"
)

// Server represents the API server
type Server struct {
	config  config.ServerConfig
	handler http.Handler
	server  *http.Server
}

// NewServer creates a new API server. oauth may be nil when Google is not
// configured.
func NewServer(cfg config.ServerConfig, h *Handlers, hc *HealthChecker, oauth OAuthHandlers) *Server {
	return &Server{
		config:  cfg,
		handler: SetupRoutes(h, hc, oauth, cfg.AllowedOrigins),
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe(addr string) error {
	readTimeout := s.config.ReadTimeout()
	if readTimeout <= 0 {
		readTimeout = 30 * time.Second
	}
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.handler,
		// Reports may fan out to several slow sources, so writes get longer
		// than reads.
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing
func (s *Server) Handler() http.Handler {
	return s.handler
}
