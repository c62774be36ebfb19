//go:build windows
// +build windows

package winsvc

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// EntryPoint runs on the worker thread the SCM spawns for the service.
// It must register a control handler, report status, and block until
// stop or shutdown has been acknowledged, then return. Returning ends
// the service's worker thread but not the outer dispatcher call.
type EntryPoint func(args []string)

// ErrDispatcherRunning is returned by Run when the process has already
// handed a thread to the SCM dispatcher.
var ErrDispatcherRunning = errors.New("service dispatcher already running")

var dispatch struct {
	mu      sync.Mutex
	running bool
	entry   EntryPoint
}

var (
	serviceMainOnce     sync.Once
	serviceMainCallback uintptr
)

// Run registers a single-entry service table mapping name to the
// process's service entry function and starts the SCM dispatcher. The
// dispatcher takes over the calling thread as its dispatch loop and
// only returns at process-level shutdown of the service framework.
func Run(name string, entry EntryPoint) error {
	dispatch.mu.Lock()
	if dispatch.running {
		dispatch.mu.Unlock()
		return ErrDispatcherRunning
	}
	dispatch.running = true
	dispatch.entry = entry
	dispatch.mu.Unlock()

	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return fmt.Errorf("invalid service name: %w", err)
	}

	serviceMainOnce.Do(func() {
		serviceMainCallback = windows.NewCallback(serviceMain)
	})

	table := []windows.SERVICE_TABLE_ENTRY{
		{ServiceName: namePtr, ServiceProc: serviceMainCallback},
		{ServiceName: nil, ServiceProc: 0},
	}
	if err := windows.StartServiceCtrlDispatcher(&table[0]); err != nil {
		return fmt.Errorf("start service dispatcher: %w", err)
	}
	return nil
}

// serviceMain is the SCM-invoked service entry. It decodes the raw
// argument vector and hands off to the registered entry point.
func serviceMain(argc uintptr, argv uintptr) uintptr {
	args := decodeRawArgs(uint32(argc), (**uint16)(unsafe.Pointer(argv)))

	dispatch.mu.Lock()
	entry := dispatch.entry
	dispatch.mu.Unlock()

	if entry != nil {
		entry(args)
	}
	return 0
}

// decodeRawArgs converts the SCM's argument vector, an array of raw
// NUL-terminated UTF-16 pointers, into Go strings. Each string scan is
// bounded by maxArgLen so a missing terminator yields a truncated value
// instead of an unbounded read.
func decodeRawArgs(argc uint32, argv **uint16) []string {
	if argc == 0 || argv == nil {
		return nil
	}
	ptrs := unsafe.Slice(argv, argc)
	args := make([]string, 0, argc)
	for _, p := range ptrs {
		if p == nil {
			args = append(args, "")
			continue
		}
		args = append(args, decodeArg(unsafe.Slice(p, maxArgLen)))
	}
	return args
}
