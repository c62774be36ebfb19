//go:build windows
// +build windows

package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sys/windows/svc"

	"svckit/internal/logger"
	"svckit/internal/winsvc"
)

// stopTimeout bounds how long the stop path waits for the run function
// after a Stop/Shutdown control before reporting Stopped anyway.
const stopTimeout = 30 * time.Second

// WindowsService runs the agent under the service control manager using
// the winsvc dispatcher and control-handler bridge.
type WindowsService struct {
	name    string
	runFunc RunFunc
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	stopped bool
}

// NewService creates a new platform-specific service.
func NewService(name string, runFunc RunFunc) Service {
	return &WindowsService{
		name:    name,
		runFunc: runFunc,
	}
}

// Run starts the service. Interactively it just calls the run function;
// under the SCM it hands the calling thread to the service dispatcher,
// which invokes serviceMain on an SCM worker thread.
func (s *WindowsService) Run(ctx context.Context) error {
	if !s.IsService() {
		return s.runFunc(ctx)
	}
	return winsvc.Run(s.name, s.serviceMain)
}

// Stop requests the service to stop.
func (s *WindowsService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil && !s.stopped {
		s.stopped = true
		s.cancel()
	}
	return nil
}

// IsService reports whether the process runs under the SCM.
func (s *WindowsService) IsService() bool {
	isService, err := svc.IsWindowsService()
	if err != nil {
		return false
	}
	return isService
}

// serviceMain is the SCM-invoked entry point. It registers the control
// handler, drives the status state machine and blocks until Stop or
// Shutdown has been acknowledged.
func (s *WindowsService) serviceMain(args []string) {
	log := logger.WithComponent("windows-service")
	log.Debug().Strs("args", args).Msg("Service entry point invoked")

	// One-shot rendezvous between the SCM control thread and this one.
	shutdown := make(chan struct{})
	var shutdownOnce sync.Once

	handler := func(_ winsvc.StatusHandle, c winsvc.Control) winsvc.Disposition {
		switch c {
		case winsvc.ControlInterrogate:
			// Acknowledge without changing state.
			return winsvc.Acknowledge

		case winsvc.ControlStop, winsvc.ControlShutdown:
			// Signal and acknowledge; cleanup happens after the
			// handler returns, driven by the entry point unblocking.
			shutdownOnce.Do(func() { close(shutdown) })
			return winsvc.Acknowledge

		default:
			return winsvc.NotImplemented
		}
	}

	status, err := winsvc.RegisterHandler(s.name, handler)
	if err != nil {
		log.Error().Err(err).Msg("Cannot register service control handler")
		ReportStartupError(s.name, err)
		return
	}

	s.report(status, winsvc.StartPending, 0, winsvc.NoError, 1, 10*time.Second)

	s.ctx, s.cancel = context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.runFunc(s.ctx)
	}()

	const accepted = winsvc.AcceptStop | winsvc.AcceptShutdown
	s.report(status, winsvc.Running, accepted, winsvc.NoError, 0, 0)
	log.Info().Str("service", s.name).Msg("Windows service started")

	select {
	case <-shutdown:
		log.Info().Msg("Received stop request from service control manager")
		s.report(status, winsvc.StopPending, 0, winsvc.NoError, 1, stopTimeout+5*time.Second)
		s.Stop()

		select {
		case err := <-done:
			if err != nil {
				log.Error().Err(err).Msg("Run function exited with error during stop")
			}
		case <-time.After(stopTimeout):
			log.Warn().Msg("Timeout waiting for service to stop")
		}
		s.report(status, winsvc.Stopped, 0, winsvc.NoError, 0, 0)

	case err := <-done:
		exitCode := winsvc.NoError
		if err != nil {
			log.Error().Err(err).Msg("Run function exited with error")
			exitCode = winsvc.ServiceSpecificExitCode(1)
		}
		s.report(status, winsvc.Stopped, 0, exitCode, 0, 0)
	}
}

// report builds a validated status snapshot and pushes it to the SCM.
// Failures are logged, not escalated: the service keeps running and the
// SCM's hang detection takes over if reports stay broken.
func (s *WindowsService) report(status winsvc.StatusHandle, state winsvc.State,
	accepts winsvc.AcceptedControls, exit winsvc.ExitCode, checkpoint uint32, hint time.Duration) {

	log := logger.WithComponent("windows-service")
	snapshot, err := winsvc.NewStatus(winsvc.OwnProcess, state, accepts, exit, checkpoint, hint)
	if err != nil {
		log.Error().Err(err).Stringer("state", state).Msg("Invalid status snapshot")
		return
	}
	if err := status.SetStatus(snapshot); err != nil {
		log.Error().Err(err).Stringer("state", state).Msg("Failed to report service status")
	}
}
