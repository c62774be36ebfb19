//go:build windows
// +build windows

package service

import (
	"fmt"
	"os"
	"time"

	"github.com/benbjohnson/clock"

	"svckit/internal/logger"
	"svckit/internal/winsvc"
)

const removePollInterval = time.Second

// InstallOptions describe the service entry to register.
type InstallOptions struct {
	Name        string
	DisplayName string
	StartType   winsvc.StartType
	// Account empty means LocalSystem.
	Account  string
	Password string
	// ConfigPath is baked into the launch command so the service finds
	// its configuration regardless of working directory.
	ConfigPath string
}

// Install registers the current executable as a Windows service.
func Install(opts InstallOptions) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}

	mgr, err := winsvc.Connect("", "", winsvc.ManagerConnect|winsvc.ManagerCreateService)
	if err != nil {
		return err
	}
	defer mgr.Disconnect()

	desc := winsvc.Descriptor{
		Name:            opts.Name,
		DisplayName:     opts.DisplayName,
		Type:            winsvc.OwnProcess,
		StartType:       opts.StartType,
		ErrorControl:    winsvc.ErrorControlNormal,
		ExecutablePath:  exe,
		// Flags precede the command: the flag package stops parsing at
		// the first non-flag argument.
		Arguments:       []string{"-config", opts.ConfigPath, "run"},
		AccountName:     opts.Account,
		AccountPassword: opts.Password,
	}

	svc, err := mgr.CreateService(desc, winsvc.AccessQueryStatus)
	if err != nil {
		return err
	}
	svc.Close()

	logger.WithComponent("service-install").Info().
		Str("service", opts.Name).
		Str("executable", exe).
		Stringer("start_type", opts.StartType).
		Msg("Service installed")
	return nil
}

// Remove stops the service if needed, waits for it to reach Stopped and
// deletes the entry. Returns ErrStopTimeout if the service has not
// stopped within timeout.
func Remove(name string, timeout time.Duration) error {
	mgr, err := winsvc.Connect("", "", winsvc.ManagerConnect)
	if err != nil {
		return err
	}
	defer mgr.Disconnect()

	svc, err := mgr.OpenService(name,
		winsvc.AccessQueryStatus|winsvc.AccessStop|winsvc.AccessDelete)
	if err != nil {
		return err
	}
	defer svc.Close()

	return removeService(svc, clock.New(), removePollInterval, timeout)
}

// Start asks the SCM to launch the service.
func Start(name string) error {
	mgr, err := winsvc.Connect("", "", winsvc.ManagerConnect)
	if err != nil {
		return err
	}
	defer mgr.Disconnect()

	svc, err := mgr.OpenService(name, winsvc.AccessStart)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Start()
}

// SendStop sends a stop control and returns the status reported with
// the acknowledgement.
func SendStop(name string) (winsvc.Status, error) {
	mgr, err := winsvc.Connect("", "", winsvc.ManagerConnect)
	if err != nil {
		return winsvc.Status{}, err
	}
	defer mgr.Disconnect()

	svc, err := mgr.OpenService(name, winsvc.AccessQueryStatus|winsvc.AccessStop)
	if err != nil {
		return winsvc.Status{}, err
	}
	defer svc.Close()

	return svc.Control(winsvc.ControlStop)
}

// QueryStatus returns the current status snapshot of the service.
func QueryStatus(name string) (winsvc.Status, error) {
	mgr, err := winsvc.Connect("", "", winsvc.ManagerConnect)
	if err != nil {
		return winsvc.Status{}, err
	}
	defer mgr.Disconnect()

	svc, err := mgr.OpenService(name, winsvc.AccessQueryStatus)
	if err != nil {
		return winsvc.Status{}, err
	}
	defer svc.Close()

	return svc.QueryStatus()
}
