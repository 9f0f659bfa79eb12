package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-vega/pkg/robot"
)

// DefaultQueueSize is how many commands may wait behind a slow request
// before Enqueue blocks.
const DefaultQueueSize = 64

// ErrClosed is returned when sending through a closed queue or dispatcher.
var ErrClosed = errors.New("dispatch: closed")

type job struct {
	ctx   context.Context
	kind  string
	send  func(context.Context) error
	attrs []any
}

// Queue runs fire-and-forget robot requests one at a time, in the order they
// were enqueued. The caller never waits for a request; it only waits for
// room in the queue.
type Queue struct {
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
	jobs   chan job

	inflight sync.WaitGroup
	failed   atomic.Uint64
}

// NewQueue creates a queue and starts its worker. Each request is bounded by
// timeout.
func NewQueue(timeout time.Duration, logger *slog.Logger) *Queue {
	q := &Queue{
		timeout: timeout,
		logger:  logger,
		jobs:    make(chan job, DefaultQueueSize),
	}
	go q.run()
	return q
}

// Enqueue schedules send. The caller's context contributes values but not
// cancellation: a command outlives the request that caused it.
func (q *Queue) Enqueue(ctx context.Context, kind string, send func(context.Context) error, attrs ...any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.inflight.Add(1)
	q.jobs <- job{ctx: context.WithoutCancel(ctx), kind: kind, send: send, attrs: attrs}
	return nil
}

func (q *Queue) run() {
	for j := range q.jobs {
		q.do(j)
		q.inflight.Done()
	}
}

func (q *Queue) do(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, q.timeout)
	defer cancel()

	if err := j.send(ctx); err != nil {
		q.failed.Add(1)
		args := append([]any{"kind", j.kind, "err", err, "network", robot.IsNetworkError(err)}, j.attrs...)
		q.logger.Warn("dispatch failed", args...)
		return
	}
	q.logger.Debug("dispatched", append([]any{"kind", j.kind}, j.attrs...)...)
}

// Wait blocks until every enqueued request has finished.
func (q *Queue) Wait() {
	q.inflight.Wait()
}

// Close stops accepting requests. Requests already queued still run.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
}

// Failed returns how many requests failed.
func (q *Queue) Failed() uint64 {
	return q.failed.Load()
}
