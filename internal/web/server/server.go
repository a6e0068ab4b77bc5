// Package server runs the HTTP API with production timeouts and graceful
// shutdown.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wraps an http.Server bound to a listener
type Server struct {
	httpServer *http.Server
	config     *Config
	listener   net.Listener
	logger     *zap.Logger
}

// Config holds server configuration
type Config struct {
	// Address is the server listen address (e.g., "localhost:3000")
	Address string

	// Handler is the HTTP handler for the server
	Handler http.Handler

	// Timeouts
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Connection limits
	MaxHeaderBytes int

	Logger *zap.Logger
}

// DefaultConfig returns a production-ready server configuration
func DefaultConfig(address string, handler http.Handler) *Config {
	return &Config{
		Address:           address,
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   30 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// New creates a new server instance
func New(config *Config) (*Server, error) {
	if config == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}

	if config.Handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           config.Handler,
		ReadTimeout:       config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
		ReadHeaderTimeout: config.ReadHeaderTimeout,
		MaxHeaderBytes:    config.MaxHeaderBytes,
	}

	return &Server{
		httpServer: httpServer,
		config:     config,
		logger:     logger,
	}, nil
}

// Listen binds the listen address. Addr reports the bound address
// afterwards, which resolves port 0.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener
	return nil
}

// Serve serves on the bound listener, binding it first if needed
func (s *Server) Serve() error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.logger.Info("starting server", zap.String("address", s.Addr()))
	return s.httpServer.Serve(s.listener)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the server's network address
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Address
}
