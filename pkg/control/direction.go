// Package control defines the operator-input and telemetry vocabulary shared
// by the vega console: joystick sources and directions, discrete motion
// commands, canned poses, tilt axes and telemetry snapshots.
package control

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SourceID identifies the joystick that produced a sample.
type SourceID int

const (
	// Joy1 is the left stick.
	Joy1 SourceID = 1
	// Joy2 is the right stick.
	Joy2 SourceID = 2
)

// Valid reports whether s is a known source.
func (s SourceID) Valid() bool {
	return s == Joy1 || s == Joy2
}

func (s SourceID) String() string {
	return fmt.Sprintf("JOY%d", int(s))
}

// Direction is a discretized joystick angle: 8 compass points or center.
type Direction string

const (
	North     Direction = "N"
	NorthEast Direction = "NE"
	East      Direction = "E"
	SouthEast Direction = "SE"
	South     Direction = "S"
	SouthWest Direction = "SW"
	West      Direction = "W"
	NorthWest Direction = "NW"
	Center    Direction = "C"
)

// Directions lists every direction, center last.
var Directions = []Direction{
	North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest, Center,
}

// Valid reports whether d is one of the nine directions.
func (d Direction) Valid() bool {
	for _, v := range Directions {
		if d == v {
			return true
		}
	}
	return false
}

// ParseDirection parses a direction name, ignoring case and surrounding space.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToUpper(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownDirection, s)
	}
	return d, nil
}

// UnmarshalJSON rejects unknown direction names.
func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Sample is one joystick movement event. Its JSON form is the payload the
// robot expects on /api/joy.
type Sample struct {
	Source SourceID  `json:"id"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Dir    Direction `json:"dir"`
}

// Validate checks source and direction.
func (s Sample) Validate() error {
	if !s.Source.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSource, int(s.Source))
	}
	if !s.Dir.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownDirection, string(s.Dir))
	}
	return nil
}
