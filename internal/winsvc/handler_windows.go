//go:build windows
// +build windows

package winsvc

import (
	"fmt"
	"sync"

	"golang.org/x/sys/windows"
)

var (
	ctrlCallbackOnce sync.Once
	ctrlCallback     uintptr
)

// RegisterHandler registers handler to receive control requests for the
// named service and returns the status-report handle for it. It must be
// called from the service entry point, before the first status is
// reported. The registration lasts for the remaining process lifetime.
//
// The SCM is given a single static trampoline plus a registry token as
// opaque context; each control event is resolved through the registry,
// so nothing here relies on a Go value staying at a fixed address.
func RegisterHandler(name string, handler Handler) (StatusHandle, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return StatusHandle{}, fmt.Errorf("invalid service name: %w", err)
	}

	ctrlCallbackOnce.Do(func() {
		ctrlCallback = windows.NewCallback(controlTrampoline)
	})

	token := handlers.add(handler)
	h, err := windows.RegisterServiceCtrlHandlerEx(namePtr, ctrlCallback, token)
	if err != nil {
		handlers.remove(token)
		return StatusHandle{}, fmt.Errorf("register control handler for %s: %w", name, err)
	}

	status := StatusHandle{h: uintptr(h)}
	handlers.bind(token, status)
	return status, nil
}

// controlTrampoline is invoked by an SCM-owned thread, serially per
// service, with no guarantee of which thread. It decodes the raw
// control code, defaulting unknown codes to "not implemented", invokes
// the registered handler and hands its disposition back to the SCM.
func controlTrampoline(control, eventType, eventData, context uintptr) uintptr {
	handler, status, ok := handlers.lookup(context)
	if !ok {
		return uintptr(NotImplemented)
	}
	cmd, err := ControlFromRaw(uint32(control))
	if err != nil {
		return uintptr(NotImplemented)
	}
	return uintptr(handler(status, cmd))
}

// SetStatus pushes a new status snapshot to the SCM. Safe to call from
// any goroutine; the underlying SCM call serializes updates.
func (s StatusHandle) SetStatus(status Status) error {
	raw := status.toRaw()
	ws := windows.SERVICE_STATUS{
		ServiceType:             raw.serviceType,
		CurrentState:            raw.currentState,
		ControlsAccepted:        raw.controlsAccepted,
		Win32ExitCode:           raw.win32ExitCode,
		ServiceSpecificExitCode: raw.serviceSpecificExitCode,
		CheckPoint:              raw.checkPoint,
		WaitHint:                raw.waitHint,
	}
	if err := windows.SetServiceStatus(windows.Handle(s.h), &ws); err != nil {
		return fmt.Errorf("set service status: %w", err)
	}
	return nil
}
