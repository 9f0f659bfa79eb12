package telemetry

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/robot"
)

// scriptedSource returns its results in order, repeating the last one.
type scriptedSource struct {
	mu      sync.Mutex
	results []result
	calls   int
}

type result struct {
	t   control.Telemetry
	err error
}

func (s *scriptedSource) Stats(ctx context.Context) (control.Telemetry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	s.calls++
	return s.results[i].t, s.results[i].err
}

type collect struct {
	mu   sync.Mutex
	seen []control.Telemetry
}

func (c *collect) ShowTelemetry(t control.Telemetry) {
	c.mu.Lock()
	c.seen = append(c.seen, t)
	c.mu.Unlock()
}

func (c *collect) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestPoll_FailuresDoNotStopDisplayUpdates(t *testing.T) {
	src := &scriptedSource{results: []result{
		{t: control.Telemetry{Heading: 1}},
		{err: &robot.NetworkError{Op: "GET", URL: "x", Err: errors.New("refused")}},
		{err: &robot.MalformedResponseError{Endpoint: "/api/stats", Err: errors.New("bad json")}},
		{t: control.Telemetry{Heading: 4}},
	}}
	p := NewPoller(src, time.Second, log.Discard())
	c := &collect{}
	p.AddDisplay(c)

	want := []bool{true, false, false, true}
	for i, w := range want {
		if got := p.Poll(context.Background()); got != w {
			t.Errorf("poll %d = %v, want %v", i, got, w)
		}
	}

	if c.count() != 2 || c.seen[1].Heading != 4 {
		t.Errorf("displays saw %+v", c.seen)
	}
	stats := p.Stats()
	if stats.Polls != 4 || stats.Failures != 2 || stats.Malformed != 1 {
		t.Errorf("Stats = %+v", stats)
	}
}

func TestPoller_RunStop(t *testing.T) {
	src := &scriptedSource{results: []result{{t: control.Telemetry{Voltage: 12}}}}
	p := NewPoller(src, 5*time.Millisecond, log.Discard())

	var mu sync.Mutex
	var n int
	p.AddDisplay(DisplayFunc(func(control.Telemetry) {
		mu.Lock()
		n++
		mu.Unlock()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if n < 3 {
		t.Errorf("expected at least 3 display updates, got %d", n)
	}
}

func TestNewPoller_DefaultInterval(t *testing.T) {
	p := NewPoller(&scriptedSource{}, 0, log.Discard())
	if p.Interval() != DefaultInterval {
		t.Errorf("Interval = %v, want %v", p.Interval(), DefaultInterval)
	}
}

func TestPoll_OutageWarnsOncePerStreak(t *testing.T) {
	refused := &robot.NetworkError{Op: "GET", URL: "x", Err: errors.New("refused")}
	src := &scriptedSource{results: []result{
		{err: refused},
		{err: refused},
		{err: refused},
		{t: control.Telemetry{Heading: 1}},
		{err: refused},
		{err: refused},
	}}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := NewPoller(src, time.Second, logger)

	for range src.results {
		p.Poll(context.Background())
	}

	out := buf.String()
	if n := strings.Count(out, `level=WARN msg="telemetry poll failed"`); n != 2 {
		t.Errorf("got %d warnings, want one per outage:\n%s", n, out)
	}
	if n := strings.Count(out, `level=DEBUG msg="telemetry poll failed"`); n != 3 {
		t.Errorf("got %d debug lines, want 3:\n%s", n, out)
	}
	if !strings.Contains(out, `msg="telemetry recovered" failures=3`) {
		t.Errorf("recovery not logged:\n%s", out)
	}
}

func TestPoller_RunPollsImmediately(t *testing.T) {
	src := &scriptedSource{results: []result{{t: control.Telemetry{Voltage: 12}}}}
	p := NewPoller(src, time.Hour, log.Discard())
	c := &collect{}
	p.AddDisplay(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no display update before the first tick")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPoller_RunWithCancelledContext(t *testing.T) {
	src := &scriptedSource{results: []result{{t: control.Telemetry{}}}}
	p := NewPoller(src, time.Hour, log.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if p.Stats().Polls != 0 {
		t.Error("a cancelled poller should not poll")
	}
}
