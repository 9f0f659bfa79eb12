package control

import "errors"

// Sentinel errors for invalid operator input.
var (
	// ErrUnknownSource is returned for a joystick id other than 1 or 2.
	ErrUnknownSource = errors.New("control: unknown joystick source")

	// ErrUnknownDirection is returned for a direction outside the nine
	// compass values.
	ErrUnknownDirection = errors.New("control: unknown direction")

	// ErrUnknownCommand is returned for a motion command outside the panel.
	ErrUnknownCommand = errors.New("control: unknown command")

	// ErrUnknownPose is returned for a pose other than sit, crouch, ready.
	ErrUnknownPose = errors.New("control: unknown pose")

	// ErrUnknownAxis is returned for a tilt axis other than pitch or yaw.
	ErrUnknownAxis = errors.New("control: unknown tilt axis")

	// ErrTableShape is returned when a leg table is not 4x3.
	ErrTableShape = errors.New("control: leg table must be 4x3")
)
