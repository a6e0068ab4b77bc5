package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// ShutdownHook is a function called after the server stopped accepting
// requests
type ShutdownHook func(ctx context.Context) error

// Run serves until ctx is cancelled, then shuts the server down within
// the shutdown timeout and runs the hooks in order. A failing hook does
// not stop the others; every error is returned joined.
func (s *Server) Run(ctx context.Context, hooks ...ShutdownHook) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server failed: %w", err)
			return
		}
		errChan <- nil
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig("", nil).ShutdownTimeout
	}
	s.logger.Info("shutting down server", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := s.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := <-errChan; err != nil {
		errs = append(errs, err)
	}

	for i, hook := range hooks {
		if err := hook(shutdownCtx); err != nil {
			s.logger.Warn("shutdown hook failed", zap.Int("hook", i), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) == 0 {
		s.logger.Info("server shutdown completed")
	}
	return errors.Join(errs...)
}
