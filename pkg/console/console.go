// Package console ties the input widgets, dispatchers and the robot client
// together into operator sessions.
//
// Each operator connection gets its own Session so two browser tabs never
// share dispatch state. The sliders are shared: they mirror the robot, which
// there is only one of.
package console

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/dispatch"
	"github.com/teslashibe/go-vega/pkg/robot"
	"github.com/teslashibe/go-vega/pkg/widget"
)

// Slider names.
const (
	SliderHeight = "height"
	SliderPitch  = "pitch"
	SliderYaw    = "yaw"
)

// Config configures a Console.
type Config struct {
	Sources        dispatch.SourceConfig
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Console owns the robot client, the shared sliders and the default session
// used by plain HTTP requests.
type Console struct {
	robot   robot.Controller
	filter  dispatch.Filter
	timeout time.Duration
	logger  *slog.Logger

	sliders map[string]*widget.Slider
	order   []string

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	def *Session

	tilts *dispatch.Queue
}

// New creates a console. Sources defaults to dispatch.DefaultSourceConfig.
func New(r robot.Controller, cfg Config) (*Console, error) {
	if cfg.Sources == nil {
		cfg.Sources = dispatch.DefaultSourceConfig()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = dispatch.DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}

	c := &Console{
		robot:    r,
		filter:   dispatch.NewFilter(cfg.Sources),
		timeout:  cfg.RequestTimeout,
		logger:   cfg.Logger,
		sliders:  make(map[string]*widget.Slider),
		sessions: make(map[uuid.UUID]*Session),
		tilts:    dispatch.NewQueue(cfg.RequestTimeout, cfg.Logger),
	}

	params := []widget.SliderParams{
		// Height has no robot endpoint; it only reflects telemetry.
		{Name: SliderHeight, Title: "Height", Min: 0, Max: 100, Step: 5},
		{Name: SliderPitch, Title: "Pitch", Min: -50, Max: 50, Step: 5, OnChange: c.tiltFunc(control.AxisPitch)},
		{Name: SliderYaw, Title: "Yaw", Min: -50, Max: 50, Step: 5, OnChange: c.tiltFunc(control.AxisYaw)},
	}
	for _, p := range params {
		s, err := widget.NewSlider(p)
		if err != nil {
			return nil, err
		}
		c.sliders[p.Name] = s
		c.order = append(c.order, p.Name)
	}

	c.def = c.newSession()
	return c, nil
}

// Robot returns the robot client.
func (c *Console) Robot() robot.Controller {
	return c.robot
}

// Default returns the server-wide session.
func (c *Console) Default() *Session {
	return c.def
}

// NewSession opens a session with fresh dispatch state and panel.
func (c *Console) NewSession() *Session {
	s := c.newSession()
	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()
	c.logger.Info("session opened", "session", s.ID)
	return s
}

// CloseSession stops the session, waits for its queued commands and forgets
// it.
func (c *Console) CloseSession(s *Session) {
	c.mu.Lock()
	delete(c.sessions, s.ID)
	c.mu.Unlock()
	s.Dispatcher.Close()
	s.Dispatcher.Wait()
	c.logger.Info("session closed", "session", s.ID)
}

// Sessions returns the number of open sessions, not counting the default.
func (c *Console) Sessions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// Wait drains queued commands of every session and pending tilt
// adjustments.
func (c *Console) Wait() {
	c.tilts.Wait()
	for _, s := range c.all() {
		s.Dispatcher.Wait()
	}
}

// Close stops every session and the tilt queue, then waits for what was
// already queued. The console must not be used afterwards.
func (c *Console) Close() {
	c.tilts.Close()
	for _, s := range c.all() {
		s.Dispatcher.Close()
	}
	c.Wait()
}

func (c *Console) all() []*Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Session, 0, len(c.sessions)+1)
	out = append(out, c.def)
	for _, s := range c.sessions {
		out = append(out, s)
	}
	return out
}

func (c *Console) newSession() *Session {
	id := uuid.New()
	logger := c.logger.With("session", id.String())
	d := dispatch.NewDispatcher(c.robot, c.filter,
		dispatch.WithRequestTimeout(c.timeout),
		dispatch.WithLogger(logger),
	)
	s := &Session{ID: id, Dispatcher: d}
	s.Panel = widget.NewPanel(func(cmd control.Command) {
		// The panel only emits valid commands.
		_ = d.Command(context.Background(), cmd)
	})
	return s
}

// Slider returns the named slider.
func (c *Console) Slider(name string) (*widget.Slider, error) {
	s, ok := c.sliders[name]
	if !ok {
		return nil, fmt.Errorf("console: unknown slider %q", name)
	}
	return s, nil
}

// SliderState is a slider as shown to the operator.
type SliderState struct {
	Name  string  `json:"name"`
	Title string  `json:"title"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Step  float64 `json:"step"`
	Value float64 `json:"value"`
}

// Sliders returns every slider in display order.
func (c *Console) Sliders() []SliderState {
	out := make([]SliderState, 0, len(c.order))
	for _, name := range c.order {
		s := c.sliders[name]
		p := s.Params()
		out = append(out, SliderState{
			Name:  p.Name,
			Title: p.Title,
			Min:   p.Min,
			Max:   p.Max,
			Step:  p.Step,
			Value: s.Value(),
		})
	}
	return out
}

// tiltFunc returns a slider callback that queues the tilt adjustment. Like
// every other command it is fire-and-forget, and adjustments reach the robot
// in the order the slider moved.
func (c *Console) tiltFunc(axis control.Axis) func(float64) {
	return func(v float64) {
		err := c.tilts.Enqueue(context.Background(), "tilt", func(ctx context.Context) error {
			return c.robot.AdjustTilt(ctx, axis, v)
		}, "axis", string(axis), "value", v)
		if err != nil {
			c.logger.Debug("tilt adjust dropped", "axis", string(axis), "err", err)
		}
	}
}

// ShowTelemetry moves the sliders to the robot's reported values without
// sending anything back.
func (c *Console) ShowTelemetry(t control.Telemetry) {
	c.sliders[SliderHeight].SetValue(t.HeightPct)
	c.sliders[SliderPitch].SetValue(t.Tilt.Pitch)
	c.sliders[SliderYaw].SetValue(t.Tilt.Yaw)
}

// Session is one operator's input state.
type Session struct {
	ID         uuid.UUID
	Dispatcher *dispatch.Dispatcher
	Panel      *widget.Panel
}

// Joy submits a joystick sample.
func (s *Session) Joy(ctx context.Context, sample control.Sample) (bool, error) {
	return s.Dispatcher.Submit(ctx, sample)
}

// Click presses a panel button.
func (s *Session) Click(b control.Command) (control.Command, error) {
	return s.Panel.Click(b)
}
