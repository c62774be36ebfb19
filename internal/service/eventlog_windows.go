//go:build windows
// +build windows

package service

import (
	"fmt"

	"golang.org/x/sys/windows/svc/eventlog"
)

// ReportStartupError writes a startup error to the Windows Event Log so
// that "net start" and Event Viewer show the actual failure even when
// the logger has not been initialized yet.
func ReportStartupError(serviceName string, err error) {
	// Registering the event source is idempotent.
	_ = eventlog.InstallAsEventCreate(serviceName, eventlog.Error|eventlog.Warning|eventlog.Info)

	elog, openErr := eventlog.Open(serviceName)
	if openErr != nil {
		return
	}
	defer elog.Close()

	elog.Error(1, fmt.Sprintf("Failed to start: %v", err))
}
