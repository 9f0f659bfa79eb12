package web

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-vega/pkg/control"
	"github.com/teslashibe/go-vega/pkg/robot"
	"github.com/teslashibe/go-vega/pkg/widget"
)

// handleHealth reports liveness and counters
func (s *Server) handleHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":            "ok",
		"uptime":            time.Since(s.started).Round(time.Second).String(),
		"sessions":          s.console.Sessions(),
		"telemetry_clients": s.telemetryHub.ClientCount(),
		"dispatch":          s.console.Default().Dispatcher.Stats(),
	}
	if s.cfg.Poller != nil {
		resp["poller"] = s.cfg.Poller.Stats()
	}
	return c.JSON(resp)
}

// JoyRequest is a joystick sample. Dir may be omitted, in which case it is
// classified from x and y.
type JoyRequest struct {
	ID  control.SourceID `json:"id"`
	X   float64          `json:"x"`
	Y   float64          `json:"y"`
	Dir string           `json:"dir"`
}

// Sample converts the request into a validated sample.
func (r JoyRequest) Sample() (control.Sample, error) {
	s := control.Sample{Source: r.ID, X: r.X, Y: r.Y}
	if r.Dir == "" {
		s.Dir = widget.Classify(r.X, r.Y, widget.DefaultDeadBand)
	} else {
		d, err := control.ParseDirection(r.Dir)
		if err != nil {
			return s, err
		}
		s.Dir = d
	}
	return s, s.Validate()
}

// handleJoy feeds a sample into the server-wide session
func (s *Server) handleJoy(c *fiber.Ctx) error {
	var req JoyRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid joy payload: "+err.Error())
	}
	sample, err := req.Sample()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sent, err := s.console.Default().Joy(c.UserContext(), sample)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"sent": sent, "dir": sample.Dir})
}

// handleGetPanel returns the panel buttons
func (s *Server) handleGetPanel(c *fiber.Ctx) error {
	return c.JSON(s.console.Default().Panel.Buttons())
}

// handleClick presses a panel button
func (s *Server) handleClick(c *fiber.Ctx) error {
	cmd, err := control.ParseCommand(c.Params("button"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	sess := s.console.Default()
	emitted, err := sess.Click(cmd)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(fiber.Map{"emitted": emitted, "buttons": sess.Panel.Buttons()})
}

// handleGetSliders returns every slider
func (s *Server) handleGetSliders(c *fiber.Ctx) error {
	return c.JSON(s.console.Sliders())
}

func (s *Server) handleSliderChange(c *fiber.Ctx) error {
	slider, err := s.console.Slider(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	v, err := strconv.ParseFloat(c.Params("value"), 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid slider value")
	}
	return c.JSON(fiber.Map{"name": slider.Name(), "value": slider.Change(v)})
}

// handleSliderReset is the double-click reset
func (s *Server) handleSliderReset(c *fiber.Ctx) error {
	slider, err := s.console.Slider(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(fiber.Map{"name": slider.Name(), "value": slider.Reset()})
}

// relayCtx bounds a relayed robot request.
func (s *Server) relayCtx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), s.cfg.RelayTimeout)
}

// relayError maps robot errors onto HTTP statuses: robot replies keep their
// status, an unreachable or garbled robot is a bad gateway.
func relayError(err error) error {
	var apiErr *robot.APIError
	switch {
	case errors.As(err, &apiErr):
		return fiber.NewError(apiErr.StatusCode, apiErr.Message)
	case robot.IsNetworkError(err), errors.Is(err, robot.ErrMalformedResponse):
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
	return err
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	t, err := s.console.Robot().Stats(ctx)
	if err != nil {
		return relayError(err)
	}
	return c.JSON(t)
}

func (s *Server) handleGetOffsets(c *fiber.Ctx) error {
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	t, err := s.console.Robot().Offsets(ctx)
	if err != nil {
		return relayError(err)
	}
	return c.JSON(t)
}

// tableFromBody returns nil for an empty body, which means reset.
func tableFromBody(c *fiber.Ctx) (*control.LegTable, error) {
	if len(c.Body()) == 0 {
		return nil, nil
	}
	var t control.LegTable
	if err := json.Unmarshal(c.Body(), &t); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return &t, nil
}

func (s *Server) handleSetOffsets(c *fiber.Ctx) error {
	t, err := tableFromBody(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	if err := s.console.Robot().SetOffsets(ctx, t); err != nil {
		return relayError(err)
	}
	return c.JSON(fiber.Map{"status": "ok", "reset": t == nil})
}

func (s *Server) handleGetTargets(c *fiber.Ctx) error {
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	t, err := s.console.Robot().Targets(ctx)
	if err != nil {
		return relayError(err)
	}
	return c.JSON(t)
}

func (s *Server) handleSetTargets(c *fiber.Ctx) error {
	t, err := tableFromBody(c)
	if err != nil {
		return err
	}
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	if err := s.console.Robot().SetTargets(ctx, t); err != nil {
		return relayError(err)
	}
	return c.JSON(fiber.Map{"status": "ok", "reset": t == nil})
}

func (s *Server) handleGetTilt(c *fiber.Ctx) error {
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	t, err := s.console.Robot().Tilt(ctx)
	if err != nil {
		return relayError(err)
	}
	return c.JSON(t)
}

func (s *Server) handlePose(c *fiber.Ctx) error {
	p, err := control.ParsePose(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	if err := s.console.Robot().SetPose(ctx, p); err != nil {
		return relayError(err)
	}
	return c.JSON(fiber.Map{"status": "ok", "pose": p})
}

func (s *Server) handleLevel(c *fiber.Ctx) error {
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	if err := s.console.Robot().Level(ctx); err != nil {
		return relayError(err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleDemo(c *fiber.Ctx) error {
	ctx, cancel := s.relayCtx(c)
	defer cancel()
	if err := s.console.Robot().Demo(ctx); err != nil {
		return relayError(err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
