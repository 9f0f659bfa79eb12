package control

import (
	"fmt"
	"strings"
)

// Command is a discrete motion intent driven by the button panel.
type Command string

const (
	ForwardLeft   Command = "FORWARD_LT"
	Forward       Command = "FORWARD"
	ForwardRight  Command = "FORWARD_RT"
	Left          Command = "LEFT"
	Stop          Command = "STOP"
	Right         Command = "RIGHT"
	BackwardLeft  Command = "BACKWARD_LT"
	Backward      Command = "BACKWARD"
	BackwardRight Command = "BACKWARD_RT"
)

// Commands lists the panel commands in grid order (row by row).
var Commands = []Command{
	ForwardLeft, Forward, ForwardRight,
	Left, Stop, Right,
	BackwardLeft, Backward, BackwardRight,
}

var commandLabels = map[Command]string{
	ForwardLeft:   "Forward LT",
	Forward:       "Forward",
	ForwardRight:  "Forward RT",
	Left:          "Left",
	Stop:          "Stop",
	Right:         "Right",
	BackwardLeft:  "Backward LT",
	Backward:      "Backward",
	BackwardRight: "Backward RT",
}

// Valid reports whether c is one of the nine commands.
func (c Command) Valid() bool {
	_, ok := commandLabels[c]
	return ok
}

// Label returns the button caption for c.
func (c Command) Label() string {
	return commandLabels[c]
}

// ParseCommand parses a command name, ignoring case and surrounding space.
func ParseCommand(s string) (Command, error) {
	c := Command(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
	return c, nil
}

// Pose is a canned body posture.
type Pose string

const (
	PoseSit    Pose = "sit"
	PoseCrouch Pose = "crouch"
	PoseReady  Pose = "ready"
)

// ParsePose parses a pose name, ignoring case.
func ParsePose(s string) (Pose, error) {
	p := Pose(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PoseSit, PoseCrouch, PoseReady:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPose, s)
}

// Axis is a body tilt axis.
type Axis string

const (
	AxisPitch Axis = "pitch"
	AxisYaw   Axis = "yaw"
)

// ParseAxis parses a tilt axis name, ignoring case.
func ParseAxis(s string) (Axis, error) {
	a := Axis(strings.ToLower(strings.TrimSpace(s)))
	switch a {
	case AxisPitch, AxisYaw:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAxis, s)
}
