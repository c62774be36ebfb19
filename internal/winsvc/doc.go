// Package winsvc talks directly to the Windows service control manager:
// connecting to the service database, creating, opening and deleting
// service entries, reporting status transitions, and receiving control
// requests through the SCM's callback mechanism.
//
// The value types in this package mirror the SCM wire format exactly.
// Every enumerated value received from the system is checked against an
// exhaustive table and rejected when unknown; composite values such as
// status snapshots are validated at construction so the SCM never
// observes an invalid status.
//
// All syscall-bearing code is behind the windows build tag. The value
// types, tables and validation logic build on every platform so they can
// be tested anywhere.
package winsvc
