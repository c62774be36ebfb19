//go:build !windows
// +build !windows

package service

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"svckit/internal/logger"
)

// PosixService runs the agent in the foreground with signal-driven
// shutdown. There is no service-manager integration outside Windows.
type PosixService struct {
	name    string
	runFunc RunFunc
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
}

// NewService creates a new platform-specific service.
func NewService(name string, runFunc RunFunc) Service {
	return &PosixService{
		name:    name,
		runFunc: runFunc,
	}
}

// Run starts the service and handles SIGINT/SIGTERM for graceful
// shutdown.
func (s *PosixService) Run(ctx context.Context) error {
	log := logger.WithComponent("posix-service")

	ctx, s.cancel = context.WithCancel(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	done := make(chan error, 1)
	go func() {
		done <- s.runFunc(ctx)
	}()

	log.Info().Str("service", s.name).Msg("Service started")

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		s.Stop()

		select {
		case err := <-done:
			return err
		case sig := <-sigChan:
			log.Warn().Str("signal", sig.String()).Msg("Received second signal, forcing exit")
			return nil
		}

	case err := <-done:
		return err
	}
}

// Stop requests the service to stop.
func (s *PosixService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil && !s.stopped {
		s.stopped = true
		s.cancel()
	}
	return nil
}

// IsService reports whether the process looks like it runs under a
// service supervisor. Detection is heuristic: no controlling terminal
// on stdin.
func (s *PosixService) IsService() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}
