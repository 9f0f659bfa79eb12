package control

import (
	"encoding/json"
	"fmt"
)

// Legs is the number of legs on the robot.
const Legs = 4

// LegTable holds one 3-vector per leg: positions (x, y, z), joint angles
// (coxa, femur, tibia) or offsets (x, y, z).
type LegTable [Legs][3]float64

// UnmarshalJSON requires exactly four rows of three numbers.
func (t *LegTable) UnmarshalJSON(b []byte) error {
	var rows [][]float64
	if err := json.Unmarshal(b, &rows); err != nil {
		return err
	}
	if len(rows) != Legs {
		return fmt.Errorf("%w: want %d rows, got %d", ErrTableShape, Legs, len(rows))
	}
	for i, row := range rows {
		if len(row) != 3 {
			return fmt.Errorf("%w: row %d has %d values", ErrTableShape, i, len(row))
		}
		copy(t[i][:], row)
	}
	return nil
}

// Tilt is the body tilt target in degrees.
type Tilt struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// Telemetry is a point-in-time robot status used purely for display.
type Telemetry struct {
	Heading   float64  `json:"heading"`
	Pitch     float64  `json:"pitch"`
	Yaw       float64  `json:"yaw"`
	Voltage   float64  `json:"voltage"`
	Positions LegTable `json:"positions"`
	Angles    LegTable `json:"angles"`
	Offsets   LegTable `json:"offsets"`
	Tilt      Tilt     `json:"tilt"`
	HeightPct float64  `json:"height_pct"`
}
