// Package shell runs the HTTP server in the background and shows it in a
// native window on the calling goroutine.
package shell

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"debts/internal/log"
)

// Server is the subset of *http.Server the shell drives.
type Server interface {
	Serve(l net.Listener) error
	Shutdown(ctx context.Context) error
	Close() error
}

// Window shows a URL until the user closes it. Run blocks and must be called
// on the main OS thread. Terminate may be called from any goroutine, before,
// during or after Run.
type Window interface {
	Run(url string) error
	Terminate()
}

type Shell struct {
	server          Server
	listener        net.Listener
	window          Window
	logger          *log.Logger
	shutdownTimeout time.Duration
}

// New returns a shell serving on l. A nil window runs headless.
func New(server Server, l net.Listener, window Window, logger *log.Logger) *Shell {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Shell{
		server:          server,
		listener:        l,
		window:          window,
		logger:          logger.WithComponent(log.ComponentShell),
		shutdownTimeout: 5 * time.Second,
	}
}

// URL is the address the window loads.
func (s *Shell) URL() string {
	return "http://" + s.listener.Addr().String() + "/"
}

// Run serves until the window closes, or in headless mode until ctx is done.
// Closing the window stops the server at once without draining requests.
func (s *Shell) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server listening", "url", s.URL())
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	if s.window == nil {
		g.Go(func() error {
			<-gctx.Done()
			s.logger.Info("Shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				s.logger.Warn("Graceful shutdown failed", log.FieldError, err)
				return s.server.Close()
			}
			return nil
		})
		return g.Wait()
	}

	// A failing server or a cancelled parent closes the window.
	stop := context.AfterFunc(gctx, s.window.Terminate)
	winErr := s.window.Run(s.URL())
	stop()

	s.logger.Info("Window closed, stopping server")
	if err := s.server.Close(); err != nil {
		s.logger.Warn("Server close failed", log.FieldError, err)
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if winErr != nil {
		return fmt.Errorf("window: %w", winErr)
	}
	return nil
}
