// Package svcinfo reads a registered service's configuration through
// WMI. This complements the SCM status path: the Win32_Service class
// exposes the stored configuration (start mode, binary path, account)
// without requiring change-config rights on the service handle.
package svcinfo

// Info describes one registered service entry.
type Info struct {
	Name        string
	DisplayName string
	State       string
	StartMode   string
	PathName    string
	StartName   string
}
