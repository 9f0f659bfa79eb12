package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/robot"
)

// DefaultRequestTimeout bounds each fire-and-forget command.
const DefaultRequestTimeout = 2 * time.Second

// Sender is what the dispatcher needs from the robot.
type Sender interface {
	robot.JoyCommander
	robot.MoveCommander
}

// Dispatcher owns one DispatchState and sends commands to the robot.
//
// Decisions are made synchronously under the mutex and the state is updated
// before the request goes out. Requests are queued under the same mutex and
// sent by a single worker, so the robot sees them in decision order. They are
// never retried and their outcome never feeds back into the state.
type Dispatcher struct {
	robot   Sender
	filter  Filter
	timeout time.Duration
	logger  *slog.Logger
	queue   *Queue

	mu     sync.Mutex
	state  State
	closed bool

	sent       atomic.Uint64
	suppressed atomic.Uint64
	excluded   atomic.Uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithRequestTimeout sets the timeout applied to each outbound command.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for dispatch failures.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a dispatcher with a fresh (empty) state.
func NewDispatcher(sender Sender, filter Filter, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		robot:   sender,
		filter:  filter,
		timeout: DefaultRequestTimeout,
		logger:  log.L(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = NewQueue(d.timeout, d.logger)
	return d
}

// Submit runs s through the filter and, if it represents a change, sends it.
// It reports whether a command was issued. Invalid samples are rejected
// without touching state.
func (d *Dispatcher) Submit(ctx context.Context, s control.Sample) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false, ErrClosed
	}
	if d.filter.Excluded(s) {
		d.excluded.Add(1)
		return false, nil
	}
	next, send := d.filter.Decide(d.state, s)
	d.state = next

	if !send {
		d.suppressed.Add(1)
		return false, nil
	}

	if err := d.enqueue(ctx, "joy", func(ctx context.Context) error {
		return d.robot.SendJoy(ctx, s)
	}, "source", s.Source.String(), "dir", string(s.Dir)); err != nil {
		return false, err
	}
	return true, nil
}

// Command sends a discrete motion command. There is no filtering here: the
// button panel's own toggle logic already decides what to emit.
func (d *Dispatcher) Command(ctx context.Context, cmd control.Command) error {
	if !cmd.Valid() {
		return control.ErrUnknownCommand
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.enqueue(ctx, "move", func(ctx context.Context) error {
		return d.robot.Move(ctx, cmd)
	}, "command", string(cmd))
}

// enqueue must be called with d.mu held.
func (d *Dispatcher) enqueue(ctx context.Context, kind string, send func(context.Context) error, attrs ...any) error {
	if err := d.queue.Enqueue(ctx, kind, send, attrs...); err != nil {
		return err
	}
	d.sent.Add(1)
	return nil
}

// State returns a copy of the current dispatch state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Wait blocks until every queued command has finished.
func (d *Dispatcher) Wait() {
	d.queue.Wait()
}

// Close stops the dispatcher. Commands already queued are still sent; later
// calls to Submit and Command return ErrClosed.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.closed {
		d.closed = true
		d.queue.Close()
	}
}

// Stats contains dispatcher counters.
type Stats struct {
	Sent       uint64 `json:"sent"`
	Suppressed uint64 `json:"suppressed"`
	Excluded   uint64 `json:"excluded"`
	Failed     uint64 `json:"failed"`
}

// Stats returns the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Sent:       d.sent.Load(),
		Suppressed: d.suppressed.Load(),
		Excluded:   d.excluded.Load(),
		Failed:     d.queue.Failed(),
	}
}
