//go:build windows
// +build windows

package svcinfo

import (
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"
)

// win32Service mirrors the queried subset of the Win32_Service class.
// Nullable WMI properties map to pointers.
type win32Service struct {
	Name        string
	DisplayName string
	State       string
	StartMode   string
	PathName    *string
	StartName   *string
}

// Query returns the Win32_Service row for the named service.
func Query(name string) (*Info, error) {
	// WQL string literals use single quotes; double any embedded ones.
	escaped := strings.ReplaceAll(name, "'", "''")
	q := fmt.Sprintf("SELECT Name, DisplayName, State, StartMode, PathName, StartName "+
		"FROM Win32_Service WHERE Name = '%s'", escaped)

	var rows []win32Service
	if err := wmi.Query(q, &rows); err != nil {
		return nil, fmt.Errorf("query Win32_Service for %s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("service %s is not registered", name)
	}

	row := rows[0]
	info := &Info{
		Name:        row.Name,
		DisplayName: row.DisplayName,
		State:       row.State,
		StartMode:   row.StartMode,
	}
	if row.PathName != nil {
		info.PathName = *row.PathName
	}
	if row.StartName != nil {
		info.StartName = *row.StartName
	}
	return info, nil
}
