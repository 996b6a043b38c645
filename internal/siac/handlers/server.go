// Package handlers exposes the platform over HTTP: authentication,
// company administration, catalog/stock management, module installs,
// user access and product import.
package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/siacdev/siac/internal/siac/auth"
	"go.uber.org/zap"
)

// Server wraps the echo instance with start/stop lifecycle management.
type Server struct {
	echo         *echo.Echo
	logger       *zap.Logger
	httpEndpoint string
}

// NewServer builds the HTTP server and mounts every route. The login
// and health endpoints are exempt from authentication.
func NewServer(port int, h *Handler, jwtSecret string, logger *zap.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	skipper := func(c echo.Context) bool {
		return c.Path() == "/v1/login" || c.Path() == "/healthz"
	}
	e.Use(auth.Middleware(jwtSecret, skipper))

	h.Register(e)

	return &Server{
		echo:         e,
		logger:       logger,
		httpEndpoint: fmt.Sprintf(":%d", port),
	}
}

// Echo exposes the router, mainly for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

// Start runs the HTTP server, returning on the first error.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
	if err := s.echo.Start(s.httpEndpoint); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP serve error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Server stopped")
}
