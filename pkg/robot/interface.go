// Package robot provides interfaces and an HTTP implementation for the vega
// quadruped's control API.
//
// This package follows the Interface Segregation Principle (ISP) by defining
// small, focused interfaces that can be composed as needed. Consumers should
// depend only on the interfaces they actually use.
package robot

import (
	"context"

	"github.com/teslashibe/go-vega/pkg/control"
)

// JoyCommander sends joystick samples.
// Use this minimal interface when only stick input is relayed (the dispatcher).
type JoyCommander interface {
	SendJoy(ctx context.Context, s control.Sample) error
}

// MoveCommander sends discrete motion commands from the button panel.
type MoveCommander interface {
	Move(ctx context.Context, cmd control.Command) error
}

// TelemetrySource reads the robot's status snapshot.
type TelemetrySource interface {
	Stats(ctx context.Context) (control.Telemetry, error)
}

// OffsetController reads and writes per-leg position offsets.
// A nil table resets the offsets to the robot's defaults.
type OffsetController interface {
	Offsets(ctx context.Context) (control.LegTable, error)
	SetOffsets(ctx context.Context, t *control.LegTable) error
}

// TargetController reads and writes per-leg pose targets.
// A nil table resets the targets to the robot's defaults.
type TargetController interface {
	Targets(ctx context.Context) (control.LegTable, error)
	SetTargets(ctx context.Context, t *control.LegTable) error
}

// TiltController adjusts and reads the body tilt.
type TiltController interface {
	AdjustTilt(ctx context.Context, axis control.Axis, value float64) error
	Tilt(ctx context.Context) (control.Tilt, error)
}

// PostureController drives canned poses, leveling and the demo sequence.
type PostureController interface {
	SetPose(ctx context.Context, p control.Pose) error
	Level(ctx context.Context) error
	Demo(ctx context.Context) error
}

// Controller is the composite interface for full robot control.
// Use this when you need complete robot control capabilities.
type Controller interface {
	JoyCommander
	MoveCommander
	TelemetrySource
	OffsetController
	TargetController
	TiltController
	PostureController
}

// Ensure HTTPController implements Controller
var _ Controller = (*HTTPController)(nil)
