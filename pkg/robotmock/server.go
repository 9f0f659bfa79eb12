// Package robotmock is an in-memory stand-in for the robot's control API.
// It serves the same endpoints as the real robot so the console can be run
// and tested without hardware.
package robotmock

import (
	"encoding/json"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/teslashibe/go-vega/internal/log"
	"github.com/teslashibe/go-vega/pkg/control"
)

// DefaultVoltage is the battery voltage reported by a fresh mock.
const DefaultVoltage = 12.0

// Server is a mock robot.
type Server struct {
	app    *fiber.App
	logger *slog.Logger

	mu      sync.RWMutex
	offsets control.LegTable
	targets control.LegTable
	tilt    control.Tilt
	heading float64
	voltage float64
	joys    []control.Sample
	moves   []control.Command
	demos   int
	levels  int
	fail    int
}

// New creates a mock robot in its default state: zero offsets, ready pose
// targets, level tilt.
func New(logger *slog.Logger) *Server {
	if logger == nil {
		logger = log.L()
	}
	s := &Server{
		logger:  logger.With("component", "robotmock"),
		targets: PoseTable(control.PoseReady),
		voltage: DefaultVoltage,
	}

	app := fiber.New(fiber.Config{
		AppName:               "vega mock",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(s.failures)

	api := app.Group("/api")
	api.Post("/joy", s.handleJoy)
	api.Post("/move/:command", s.handleMove)
	api.Get("/stats", s.handleStats)
	api.Get("/offsets", s.handleGetOffsets)
	api.Post("/offsets", s.handleSetOffsets)
	api.Get("/targets", s.handleGetTargets)
	api.Post("/targets", s.handleSetTargets)
	// Older firmware exposes the targets under /api/pose.
	api.Get("/pose", s.handleGetTargets)
	api.Post("/pose", s.handleSetTargets)
	api.Post("/pose/:name", s.handlePose)
	api.Post("/tilt/:axis/:value", s.handleAdjustTilt)
	api.Get("/tilt", s.handleGetTilt)
	api.Post("/level", s.handleLevel)
	api.Get("/demo", s.handleDemo)

	s.app = app
	return s
}

// App returns the fiber app, for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("mock robot listening", "addr", addr)
	return s.app.Listen(addr)
}

// Serve serves on an existing listener until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// FailNext makes the next n requests answer 503.
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	s.fail = n
	s.mu.Unlock()
}

// Joys returns the joystick samples received so far.
func (s *Server) Joys() []control.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]control.Sample(nil), s.joys...)
}

// Moves returns the motion commands received so far.
func (s *Server) Moves() []control.Command {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]control.Command(nil), s.moves...)
}

// Levels reports how many level requests were received.
func (s *Server) Levels() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels
}

// Demos reports how many demo requests were received.
func (s *Server) Demos() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.demos
}

// Snapshot returns the telemetry the mock would report now.
func (s *Server) Snapshot() control.Telemetry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Server) snapshotLocked() control.Telemetry {
	var positions control.LegTable
	for i := range positions {
		for j := range positions[i] {
			positions[i][j] = s.targets[i][j] + s.offsets[i][j]
		}
	}
	return control.Telemetry{
		Heading:   s.heading,
		Pitch:     s.tilt.Pitch,
		Yaw:       s.tilt.Yaw,
		Voltage:   s.voltage,
		Positions: positions,
		Offsets:   s.offsets,
		Tilt:      s.tilt,
		HeightPct: heightPct(positions),
	}
}

func (s *Server) failures(c *fiber.Ctx) error {
	s.mu.Lock()
	if s.fail > 0 {
		s.fail--
		s.mu.Unlock()
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "servo bus busy"})
	}
	s.mu.Unlock()
	return c.Next()
}

func ok(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) handleJoy(c *fiber.Ctx) error {
	var sample control.Sample
	if err := json.Unmarshal(c.Body(), &sample); err != nil {
		return badRequest(c, err)
	}
	if err := sample.Validate(); err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	s.joys = append(s.joys, sample)
	s.mu.Unlock()
	s.logger.Debug("joy", "source", sample.Source.String(), "dir", string(sample.Dir))
	return ok(c)
}

func (s *Server) handleMove(c *fiber.Ctx) error {
	cmd, err := control.ParseCommand(c.Params("command"))
	if err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	s.moves = append(s.moves, cmd)
	s.mu.Unlock()
	s.logger.Debug("move", "command", string(cmd))
	return ok(c)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.Snapshot())
}

func (s *Server) handleGetOffsets(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.offsets)
}

// An empty body resets to the defaults.
func (s *Server) handleSetOffsets(c *fiber.Ctx) error {
	t := control.LegTable{}
	if len(c.Body()) > 0 {
		if err := t.UnmarshalJSON(c.Body()); err != nil {
			return badRequest(c, err)
		}
	}
	s.mu.Lock()
	s.offsets = t
	s.mu.Unlock()
	return ok(c)
}

func (s *Server) handleGetTargets(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.targets)
}

func (s *Server) handleSetTargets(c *fiber.Ctx) error {
	t := PoseTable(control.PoseReady)
	if len(c.Body()) > 0 {
		if err := t.UnmarshalJSON(c.Body()); err != nil {
			return badRequest(c, err)
		}
	}
	s.mu.Lock()
	s.targets = t
	s.mu.Unlock()
	return ok(c)
}

func (s *Server) handlePose(c *fiber.Ctx) error {
	p, err := control.ParsePose(c.Params("name"))
	if err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	s.targets = PoseTable(p)
	s.mu.Unlock()
	return ok(c)
}

func (s *Server) handleAdjustTilt(c *fiber.Ctx) error {
	axis, err := control.ParseAxis(c.Params("axis"))
	if err != nil {
		return badRequest(c, err)
	}
	v, err := strconv.ParseFloat(c.Params("value"), 64)
	if err != nil {
		return badRequest(c, err)
	}
	s.mu.Lock()
	switch axis {
	case control.AxisPitch:
		s.tilt.Pitch = v
	case control.AxisYaw:
		s.tilt.Yaw = v
	}
	s.mu.Unlock()
	return ok(c)
}

func (s *Server) handleGetTilt(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.tilt)
}

func (s *Server) handleLevel(c *fiber.Ctx) error {
	s.mu.Lock()
	s.tilt = control.Tilt{}
	s.levels++
	s.mu.Unlock()
	return ok(c)
}

func (s *Server) handleDemo(c *fiber.Ctx) error {
	s.mu.Lock()
	s.demos++
	s.mu.Unlock()
	return ok(c)
}
