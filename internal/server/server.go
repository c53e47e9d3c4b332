// Package server wires the HTTP API around the coach.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/kintoreai/kintore/internal/coach"
	"github.com/kintoreai/kintore/internal/config"
)

// Server is the kintore HTTP API server.
type Server struct {
	cfg   *config.Config
	http  *http.Server
	coach *coach.Coach
	log   zerolog.Logger
}

// New creates a new Server.
func New(cfg *config.Config, c *coach.Coach, log zerolog.Logger) *Server {
	s := &Server{
		cfg:   cfg,
		coach: c,
		log:   log,
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.http = &http.Server{
		Addr:    cfg.Addr(),
		Handler: s.withLogging(withCORS(mux)),
	}

	return s
}

// Handler returns the server's root handler. Used by tests to serve
// the API without binding a port.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start starts the server and blocks until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.log.Info().Str("addr", s.http.Addr).Msg("kintore server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Error().Err(err).Msg("server shutdown error")
		}
		return nil
	case err := <-errCh:
		return err
	}
}
