// Package heartbeat periodically logs a self-report of the hosting
// process so an operator can see from the service log alone that the
// agent is alive and what it costs.
package heartbeat

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"svckit/internal/logger"
)

// Sample is one self-measurement of the hosting process.
type Sample struct {
	CPUPercent float64
	RSSBytes   uint64
	Uptime     time.Duration
}

// Sampler produces process samples.
type Sampler interface {
	Sample() (Sample, error)
}

// Heartbeat logs one sample per interval until stopped.
type Heartbeat struct {
	sampler  Sampler
	clk      clock.Clock
	interval time.Duration

	mu      sync.Mutex
	running bool
	ticker  *clock.Ticker
	stop    chan struct{}
	done    chan struct{}
}

// New creates a heartbeat; clk is injectable for tests.
func New(sampler Sampler, clk clock.Clock, interval time.Duration) *Heartbeat {
	return &Heartbeat{
		sampler:  sampler,
		clk:      clk,
		interval: interval,
	}
}

// Start launches the heartbeat loop. The ticker is created before Start
// returns so the first interval begins immediately.
func (h *Heartbeat) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}
	if h.interval <= 0 {
		return fmt.Errorf("heartbeat interval %s must be positive", h.interval)
	}
	h.running = true
	h.ticker = h.clk.Ticker(h.interval)
	h.stop = make(chan struct{})
	h.done = make(chan struct{})

	go h.loop(ctx)
	return nil
}

// Stop halts the heartbeat and waits for the loop to exit.
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	close(h.stop)
	done := h.done
	h.mu.Unlock()

	<-done
}

func (h *Heartbeat) loop(ctx context.Context) {
	defer close(h.done)
	defer h.ticker.Stop()

	log := logger.WithComponent("heartbeat")
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case <-h.ticker.C:
			sample, err := h.sampler.Sample()
			if err != nil {
				log.Warn().Err(err).Msg("Heartbeat sample failed")
				continue
			}
			log.Info().
				Int("pid", os.Getpid()).
				Float64("cpu_percent", sample.CPUPercent).
				Uint64("rss_bytes", sample.RSSBytes).
				Dur("uptime", sample.Uptime).
				Msg("Heartbeat")
		}
	}
}
