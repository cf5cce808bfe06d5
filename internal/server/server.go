// Package server runs the operational HTTP endpoint next to the bot:
// health, status, and metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
)

type Server struct {
	httpServer *http.Server
}

func New(port int, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + strconv.Itoa(port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. A closed server is a normal exit,
// not an error.
func (s *Server) Start() error {
	logger.Info("Status server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
