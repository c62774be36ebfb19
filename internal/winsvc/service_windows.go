//go:build windows
// +build windows

package winsvc

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Service owns the capability handle to one service entry. Operations
// fail if the corresponding right was not requested when the handle was
// obtained.
type Service struct {
	name string
	h    windows.Handle
}

// Name returns the service name the handle was opened with.
func (s *Service) Name() string { return s.name }

// Close releases the service handle. Best effort and unconditional.
func (s *Service) Close() {
	_ = windows.CloseServiceHandle(s.h)
	s.h = 0
}

// QueryStatus returns the current status snapshot, failing closed if
// the SCM reports a code outside the known enumerations.
func (s *Service) QueryStatus() (Status, error) {
	var raw windows.SERVICE_STATUS
	if err := windows.QueryServiceStatus(s.h, &raw); err != nil {
		return Status{}, fmt.Errorf("query status of %s: %w", s.name, err)
	}
	return statusFromWindows(&raw)
}

// Control sends a control command to the service and returns the status
// snapshot reported alongside the acknowledgement. Only commands that
// are meaningful to send are accepted; shutdown notifications cannot be
// injected.
func (s *Service) Control(c Control) (Status, error) {
	if !c.Sendable() {
		return Status{}, fmt.Errorf("%s: %w", c, ErrNotSendable)
	}
	var raw windows.SERVICE_STATUS
	if err := windows.ControlService(s.h, uint32(c), &raw); err != nil {
		return Status{}, fmt.Errorf("send %s to %s: %w", c, s.name, err)
	}
	return statusFromWindows(&raw)
}

// Start asks the SCM to launch the service with the given arguments.
func (s *Service) Start(args ...string) error {
	var argvPtr **uint16
	if len(args) > 0 {
		argv := make([]*uint16, len(args))
		for i, arg := range args {
			p, err := windows.UTF16PtrFromString(arg)
			if err != nil {
				return fmt.Errorf("invalid start argument %d: %w", i, err)
			}
			argv[i] = p
		}
		argvPtr = &argv[0]
	}
	if err := windows.StartService(s.h, uint32(len(args)), argvPtr); err != nil {
		return fmt.Errorf("start service %s: %w", s.name, err)
	}
	return nil
}

// Delete marks the service entry for removal. The SCM completes the
// removal only once the service is stopped and every open handle to it
// has been closed; that is an OS guarantee this layer cannot force.
func (s *Service) Delete() error {
	if err := windows.DeleteService(s.h); err != nil {
		return fmt.Errorf("delete service %s: %w", s.name, err)
	}
	return nil
}

func statusFromWindows(raw *windows.SERVICE_STATUS) (Status, error) {
	return statusFromRaw(rawStatus{
		serviceType:             raw.ServiceType,
		currentState:            raw.CurrentState,
		controlsAccepted:        raw.ControlsAccepted,
		win32ExitCode:           raw.Win32ExitCode,
		serviceSpecificExitCode: raw.ServiceSpecificExitCode,
		checkPoint:              raw.CheckPoint,
		waitHint:                raw.WaitHint,
	})
}
