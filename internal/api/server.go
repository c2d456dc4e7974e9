// Package api serves the HTTP read surface used by slash-command front
// ends and the in-process plugin's /goto handler, plus the bulk-sync and
// player-link write endpoints.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/config"
)

// Server wraps the HTTP listener around the catalogue handler.
type Server struct {
	cfg        config.APIConfig
	handler    *Handler
	httpServer *http.Server
	mux        *http.ServeMux
}

// NewServer creates the API server.
func NewServer(cfg config.APIConfig, h *Handler) *Server {
	return &Server{cfg: cfg, handler: h}
}

// BuildMux creates and caches the mux with all routes registered.
func (s *Server) BuildMux() *http.ServeMux {
	if s.mux != nil {
		return s.mux
	}
	mux := http.NewServeMux()
	s.handler.RegisterRoutes(mux)
	s.mux = mux
	return mux
}

// Start listens until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.BuildMux(),
	}

	slog.Info("api starting", "addr", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
