// Package telemetry polls the robot's status on a fixed period and hands
// each snapshot to the registered displays.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/robot"
)

// DefaultInterval is the poll period.
const DefaultInterval = 500 * time.Millisecond

// Display shows a telemetry snapshot. Snapshots are display-only: a display
// must not keep one around as a cache for later cycles.
type Display interface {
	ShowTelemetry(t control.Telemetry)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(t control.Telemetry)

// ShowTelemetry calls f(t).
func (f DisplayFunc) ShowTelemetry(t control.Telemetry) { f(t) }

// Poller fetches telemetry every interval. Failures are logged and the loop
// carries on; nothing a poll returns can stop it.
type Poller struct {
	source   robot.TelemetrySource
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	displays []Display

	polls     atomic.Uint64
	failures  atomic.Uint64
	malformed atomic.Uint64

	// consecutive failed polls
	streak atomic.Uint64
}

// NewPoller creates a poller. interval <= 0 uses DefaultInterval. Each
// request is bounded by the interval so polls never pile up.
func NewPoller(source robot.TelemetrySource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = log.L()
	}
	return &Poller{
		source:   source,
		interval: interval,
		timeout:  interval,
		logger:   logger,
	}
}

// AddDisplay registers a display.
func (p *Poller) AddDisplay(d Display) {
	p.mu.Lock()
	p.displays = append(p.displays, d)
	p.mu.Unlock()
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Run polls once straight away, then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("telemetry poller started", "interval", p.interval)
	p.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("telemetry poller stopped")
			return ctx.Err()
		case <-ticker.C:
			p.Poll(ctx)
		}
	}
}

// Poll performs a single fetch-and-display cycle. It reports whether the
// displays were updated.
func (p *Poller) Poll(ctx context.Context) bool {
	p.polls.Add(1)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	snap, err := p.source.Stats(ctx)
	if err != nil {
		p.failures.Add(1)
		streak := p.streak.Add(1)
		switch {
		case errors.Is(err, robot.ErrMalformedResponse):
			p.malformed.Add(1)
			p.logger.Warn("telemetry malformed", "err", err)
		case streak == 1:
			// Only the first failure of an outage warns.
			p.logger.Warn("telemetry poll failed", "err", err, "network", robot.IsNetworkError(err))
		default:
			p.logger.Debug("telemetry poll failed", "err", err, "failures", streak)
		}
		return false
	}
	if n := p.streak.Swap(0); n > 0 {
		p.logger.Info("telemetry recovered", "failures", n)
	}

	p.mu.RLock()
	displays := p.displays
	p.mu.RUnlock()

	for _, d := range displays {
		d.ShowTelemetry(snap)
	}
	return true
}

// Stats contains poller counters.
type Stats struct {
	Polls     uint64 `json:"polls"`
	Failures  uint64 `json:"failures"`
	Malformed uint64 `json:"malformed"`
}

// Stats returns the poller counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Polls:     p.polls.Load(),
		Failures:  p.failures.Load(),
		Malformed: p.malformed.Load(),
	}
}
