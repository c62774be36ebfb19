//go:build windows
// +build windows

package winsvc

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Manager owns a connection to the service control manager's database.
type Manager struct {
	h windows.Handle
}

// Connect opens a connection to the SCM. An empty machine connects to
// the local machine; an empty database selects the active service
// database. Fails with the system error if the database cannot be
// opened or the requested rights exceed what the caller is granted.
func Connect(machine, database string, access ManagerAccess) (*Manager, error) {
	var machinePtr, databasePtr *uint16
	var err error
	if machine != "" {
		if machinePtr, err = windows.UTF16PtrFromString(machine); err != nil {
			return nil, fmt.Errorf("invalid machine name: %w", err)
		}
	}
	if database != "" {
		if databasePtr, err = windows.UTF16PtrFromString(database); err != nil {
			return nil, fmt.Errorf("invalid database name: %w", err)
		}
	}

	h, err := windows.OpenSCManager(machinePtr, databasePtr, uint32(access))
	if err != nil {
		return nil, fmt.Errorf("open service control manager: %w", err)
	}
	return &Manager{h: h}, nil
}

// Disconnect releases the SCM connection. Best effort and
// unconditional: close failures are not surfaced.
func (m *Manager) Disconnect() {
	_ = windows.CloseServiceHandle(m.h)
	m.h = 0
}

// CreateService registers a new service entry built from desc and
// returns a handle to it opened with the requested access. Fails if a
// service with the same name already exists.
func (m *Manager) CreateService(desc Descriptor, access ServiceAccess) (*Service, error) {
	namePtr, err := windows.UTF16PtrFromString(desc.Name)
	if err != nil {
		return nil, fmt.Errorf("invalid service name: %w", err)
	}
	displayPtr, err := windows.UTF16PtrFromString(desc.DisplayName)
	if err != nil {
		return nil, fmt.Errorf("invalid display name: %w", err)
	}
	commandPtr, err := windows.UTF16PtrFromString(desc.launchCommand())
	if err != nil {
		return nil, fmt.Errorf("invalid launch command: %w", err)
	}

	// nil account means LocalSystem.
	var accountPtr, passwordPtr *uint16
	if desc.AccountName != "" {
		if accountPtr, err = windows.UTF16PtrFromString(desc.AccountName); err != nil {
			return nil, fmt.Errorf("invalid account name: %w", err)
		}
		if desc.AccountPassword != "" {
			if passwordPtr, err = windows.UTF16PtrFromString(desc.AccountPassword); err != nil {
				return nil, fmt.Errorf("invalid account password: %w", err)
			}
		}
	}

	h, err := windows.CreateService(m.h, namePtr, displayPtr, uint32(access),
		uint32(desc.Type), uint32(desc.StartType), uint32(desc.ErrorControl),
		commandPtr,
		nil, // load ordering group
		nil, // tag id within the load ordering group
		nil, // dependencies
		accountPtr, passwordPtr)
	if err != nil {
		return nil, fmt.Errorf("create service %s: %w", desc.Name, err)
	}
	return &Service{name: desc.Name, h: h}, nil
}

// OpenService opens an existing service entry with the requested
// access. Fails if the service does not exist or access is denied.
func (m *Manager) OpenService(name string, access ServiceAccess) (*Service, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, fmt.Errorf("invalid service name: %w", err)
	}
	h, err := windows.OpenService(m.h, namePtr, uint32(access))
	if err != nil {
		return nil, fmt.Errorf("open service %s: %w", name, err)
	}
	return &Service{name: name, h: h}, nil
}
