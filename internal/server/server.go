// AngelaMos | 2026
// server.go

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/brasil-no-mundo/internal/config"
	"github.com/carterperez-dev/brasil-no-mundo/internal/health"
)

type Config struct {
	ServerConfig  config.ServerConfig
	HealthHandler *health.Handler
	Logger        *slog.Logger
}

type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	health     *health.Handler
	logger     *slog.Logger
}

func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.ServerConfig.Address(),
			Handler:           router,
			ReadTimeout:       cfg.ServerConfig.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.ServerConfig.WriteTimeout,
			IdleTimeout:       cfg.ServerConfig.IdleTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		router: router,
		health: cfg.HealthHandler,
		logger: logger,
	}
}

func (s *Server) Router() *chi.Mux {
	return s.router
}

// OnShutdown registers fn to run when Shutdown begins. Hijacked
// connections such as websockets are not drained by http.Server, so their
// owners close them here.
func (s *Server) OnShutdown(fn func()) {
	s.httpServer.RegisterOnShutdown(fn)
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)

	err := s.httpServer.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown fails readiness first so load balancers stop routing, waits
// drainDelay, then stops accepting connections and waits for in-flight
// requests.
func (s *Server) Shutdown(ctx context.Context, drainDelay time.Duration) error {
	if s.health != nil {
		s.health.SetShutdown(true)
	}

	if drainDelay > 0 {
		s.logger.Info("draining before shutdown", "delay", drainDelay)
		select {
		case <-time.After(drainDelay):
		case <-ctx.Done():
		}
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}
