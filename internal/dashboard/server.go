package dashboard

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"OilDashboard/internal/logger"
)

// ServerOptions are the http.Server timeouts.
type ServerOptions struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server runs the dashboard over HTTP.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

func NewServer(addr string, handler http.Handler, opts ServerOptions, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  opts.ReadTimeout,
			WriteTimeout: opts.WriteTimeout,
			IdleTimeout:  opts.IdleTimeout,
		},
		log: log,
	}
}

// Start blocks until the server stops. A graceful Shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("HTTP server error", zap.Error(err))
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.log.Info("HTTP server shut down")
	return nil
}
