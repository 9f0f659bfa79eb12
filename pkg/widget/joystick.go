package widget

import "github.com/teslashibe/go-vega/pkg/control"

// StickRange is the magnitude of a fully deflected stick axis.
const StickRange = 100

// DefaultDeadBand is 10% of the stick's full width (200 units).
const DefaultDeadBand = 20

// Classify maps stick coordinates in [-StickRange, StickRange] (y positive
// up) to one of the nine directions. Deflections within the dead band on an
// axis count as neutral on that axis.
func Classify(x, y, deadBand float64) control.Direction {
	vertical := ""
	switch {
	case y > deadBand:
		vertical = "N"
	case y < -deadBand:
		vertical = "S"
	}

	horizontal := ""
	switch {
	case x > deadBand:
		horizontal = "E"
	case x < -deadBand:
		horizontal = "W"
	}

	if vertical == "" && horizontal == "" {
		return control.Center
	}
	return control.Direction(vertical + horizontal)
}

// Joystick turns raw stick positions into samples for one source.
type Joystick struct {
	Source   control.SourceID
	DeadBand float64
}

// NewJoystick creates a joystick for src with the default dead band.
func NewJoystick(src control.SourceID) Joystick {
	return Joystick{Source: src, DeadBand: DefaultDeadBand}
}

// Sample classifies (x, y) and returns the resulting sample.
func (j Joystick) Sample(x, y float64) control.Sample {
	return control.Sample{
		Source: j.Source,
		X:      x,
		Y:      y,
		Dir:    Classify(x, y, j.DeadBand),
	}
}
