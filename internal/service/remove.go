package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"svckit/internal/logger"
	"svckit/internal/winsvc"
)

// ErrStopTimeout is returned when a service does not reach Stopped
// before the removal deadline.
var ErrStopTimeout = errors.New("service did not stop before the deadline")

// stopper is the slice of a service handle the removal flow needs. The
// production implementation is *winsvc.Service.
type stopper interface {
	QueryStatus() (winsvc.Status, error)
	Control(winsvc.Control) (winsvc.Status, error)
	Delete() error
}

// removeService drives a service to Stopped and deletes it: stop is
// sent unless a stop is already pending, the status is re-polled, and
// Delete only happens once Stopped has been observed. The SCM promises
// eventual arrival at Stopped but nothing about when, so the loop
// carries an explicit deadline instead of trusting that liveness
// assumption forever.
func removeService(svc stopper, clk clock.Clock, pollInterval, timeout time.Duration) error {
	log := logger.WithComponent("service-remove")
	deadline := clk.Now().Add(timeout)

	for {
		status, err := svc.QueryStatus()
		if err != nil {
			return err
		}

		switch status.State() {
		case winsvc.StopPending:
			// A stop is in flight; just wait for it to land.

		case winsvc.Stopped:
			log.Info().Msg("Service stopped, removing")
			if err := svc.Delete(); err != nil {
				return err
			}
			return nil

		default:
			log.Info().Stringer("state", status.State()).Msg("Stopping service")
			if _, err := svc.Control(winsvc.ControlStop); err != nil {
				return fmt.Errorf("stop during removal: %w", err)
			}
		}

		if clk.Now().After(deadline) {
			return fmt.Errorf("state %s after %s: %w", status.State(), timeout, ErrStopTimeout)
		}
		clk.Sleep(pollInterval)
	}
}
