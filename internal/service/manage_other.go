//go:build !windows
// +build !windows

package service

import (
	"errors"
	"time"

	"svckit/internal/winsvc"
)

// ErrUnsupported is returned by management operations on platforms
// without a service control manager.
var ErrUnsupported = errors.New("service management requires windows")

// InstallOptions describe the service entry to register.
type InstallOptions struct {
	Name        string
	DisplayName string
	StartType   winsvc.StartType
	Account     string
	Password    string
	ConfigPath  string
}

func Install(InstallOptions) error { return ErrUnsupported }

func Remove(string, time.Duration) error { return ErrUnsupported }

func Start(string) error { return ErrUnsupported }

func SendStop(string) (winsvc.Status, error) { return winsvc.Status{}, ErrUnsupported }

func QueryStatus(string) (winsvc.Status, error) { return winsvc.Status{}, ErrUnsupported }
