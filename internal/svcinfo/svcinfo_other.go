//go:build !windows
// +build !windows

package svcinfo

import "errors"

// ErrUnsupported is returned on platforms without WMI.
var ErrUnsupported = errors.New("service info requires windows")

// Query is unavailable outside Windows.
func Query(name string) (*Info, error) {
	return nil, ErrUnsupported
}
