package robotmock

import "github.com/teslashibe/go-vega/pkg/control"

// Leg geometry in millimetres.
const (
	FemurLength = 102
	TibiaLength = 114
	MaxHeight   = FemurLength + TibiaLength

	readyHeightPct = 0.65
)

// PoseTable returns the foot targets for a canned pose.
func PoseTable(p control.Pose) control.LegTable {
	var t control.LegTable
	switch p {
	case control.PoseReady:
		for i := range t {
			t[i][2] = MaxHeight * readyHeightPct
		}
	case control.PoseCrouch:
		for i := range t {
			t[i][2] = MaxHeight * readyHeightPct / 2
		}
	case control.PoseSit:
		// Front legs stay tall, rear legs fold.
		z := [control.Legs]float64{0.8, 0.8, 0.2, 0.2}
		x := [control.Legs]float64{10, 10, -25, -35}
		for i := range t {
			t[i][0] = x[i]
			t[i][2] = float64(int(MaxHeight * z[i]))
		}
	}
	return t
}

// heightPct is the mean foot height as a share of MaxHeight.
func heightPct(t control.LegTable) float64 {
	var sum float64
	for _, leg := range t {
		sum += leg[2]
	}
	return sum / control.Legs / MaxHeight * 100
}
