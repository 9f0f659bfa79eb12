package control

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in      string
		want    Command
		wantErr bool
	}{
		{"FORWARD", Forward, false},
		{"forward_lt", ForwardLeft, false},
		{" stop ", Stop, false},
		{"BACKWARD_RT", BackwardRight, false},
		{"JUMP", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseCommand(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCommand(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.wantErr && !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("ParseCommand(%q) error should wrap ErrUnknownCommand", tt.in)
		}
		if got != tt.want {
			t.Errorf("ParseCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommands_GridHasNineWithLabels(t *testing.T) {
	if len(Commands) != 9 {
		t.Fatalf("len(Commands) = %d, want 9", len(Commands))
	}
	if Commands[4] != Stop {
		t.Errorf("center of grid = %q, want STOP", Commands[4])
	}
	for _, c := range Commands {
		if c.Label() == "" {
			t.Errorf("%q has no label", c)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, d := range Directions {
		got, err := ParseDirection(string(d))
		if err != nil || got != d {
			t.Errorf("ParseDirection(%q) = %q, %v", d, got, err)
		}
	}
	if _, err := ParseDirection("NNE"); !errors.Is(err, ErrUnknownDirection) {
		t.Errorf("ParseDirection(NNE) error = %v, want ErrUnknownDirection", err)
	}
	if got, _ := ParseDirection("ne"); got != NorthEast {
		t.Errorf("ParseDirection(ne) = %q, want NE", got)
	}
}

func TestSample_JSON(t *testing.T) {
	var s Sample
	if err := json.Unmarshal([]byte(`{"id":1,"x":12,"y":80,"dir":"N"}`), &s); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if s.Source != Joy1 || s.Dir != North || s.X != 12 || s.Y != 80 {
		t.Errorf("unexpected sample %+v", s)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	if err := json.Unmarshal([]byte(`{"id":1,"dir":"UP"}`), &s); err == nil {
		t.Error("unknown direction should fail to decode")
	}

	bad := Sample{Source: 3, Dir: North}
	if err := bad.Validate(); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("Validate() = %v, want ErrUnknownSource", err)
	}
}

func TestParsePoseAndAxis(t *testing.T) {
	if p, err := ParsePose("Sit"); err != nil || p != PoseSit {
		t.Errorf("ParsePose(Sit) = %q, %v", p, err)
	}
	if _, err := ParsePose("walking"); !errors.Is(err, ErrUnknownPose) {
		t.Errorf("ParsePose(walking) error = %v", err)
	}
	if a, err := ParseAxis("YAW"); err != nil || a != AxisYaw {
		t.Errorf("ParseAxis(YAW) = %q, %v", a, err)
	}
	if _, err := ParseAxis("roll"); !errors.Is(err, ErrUnknownAxis) {
		t.Errorf("ParseAxis(roll) error = %v", err)
	}
}

func TestTelemetry_Decode(t *testing.T) {
	body := `{
		"heading": 1.5, "pitch": -0.25, "yaw": 3, "voltage": 11.8,
		"positions": [[0,0,140],[0,0,140],[0,0,140],[0,0,140]],
		"angles": [[-2,90,30],[-2,90,30],[2,90,30],[2,90,30]],
		"offsets": [[0,0,1],[0,0,0],[0,0,0],[0,0,-1]],
		"tilt": {"pitch": 5, "yaw": -10},
		"height_pct": 65
	}`

	var tm Telemetry
	if err := json.Unmarshal([]byte(body), &tm); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if tm.Voltage != 11.8 || tm.HeightPct != 65 {
		t.Errorf("scalars decoded wrong: %+v", tm)
	}
	if tm.Positions[3][2] != 140 || tm.Angles[2][0] != 2 || tm.Offsets[3][2] != -1 {
		t.Errorf("tables decoded wrong: %+v", tm)
	}
	if tm.Tilt.Yaw != -10 {
		t.Errorf("Tilt.Yaw = %v, want -10", tm.Tilt.Yaw)
	}
}

func TestLegTable_RejectsBadShape(t *testing.T) {
	tests := []string{
		`[[0,0,0],[0,0,0],[0,0,0]]`,
		`[[0,0,0],[0,0,0],[0,0,0],[0,0]]`,
		`[[0,0,0],[0,0,0],[0,0,0],[0,0,0],[0,0,0]]`,
	}
	for _, in := range tests {
		var lt LegTable
		if err := json.Unmarshal([]byte(in), &lt); !errors.Is(err, ErrTableShape) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrTableShape", in, err)
		}
	}
}
