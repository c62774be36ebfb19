// Package service integrates the agent with the host platform's service
// machinery: running under the Windows service control manager (or in
// the foreground elsewhere) and installing, removing and controlling
// the service entry itself.
package service

import "context"

// Service abstracts how the agent process runs on the platform.
type Service interface {
	// Run starts the service. It blocks until the service is stopped.
	Run(ctx context.Context) error

	// Stop requests the service to stop.
	Stop() error

	// IsService reports whether the process runs under the system's
	// service manager rather than interactively.
	IsService() bool
}

// RunFunc is the application body executed while the service runs. It
// must return once its context is cancelled.
type RunFunc func(ctx context.Context) error
