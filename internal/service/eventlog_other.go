//go:build !windows
// +build !windows

package service

// ReportStartupError is a no-op outside Windows; the Event Log does not
// exist there.
func ReportStartupError(serviceName string, err error) {
}
