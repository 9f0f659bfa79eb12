package robot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/teslashibe/go-vega/pkg/control"
)

func TestSendJoy(t *testing.T) {
	var got control.Sample
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/joy" {
			t.Errorf("Expected /api/joy, got %s", r.URL.Path)
		}
		if r.Method != "POST" {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	ctrl := NewHTTPController(server.URL)
	err := ctrl.SendJoy(context.Background(), control.Sample{Source: control.Joy1, X: 10, Y: 90, Dir: control.North})
	if err != nil {
		t.Fatalf("SendJoy failed: %v", err)
	}
	if got.Source != control.Joy1 || got.Dir != control.North || got.Y != 90 {
		t.Errorf("server saw %+v", got)
	}
}

func TestSendJoy_WireFormat(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
	}))
	defer server.Close()

	ctrl := NewHTTPController(server.URL)
	if err := ctrl.SendJoy(context.Background(), control.Sample{Source: control.Joy2, X: -40, Y: 0, Dir: control.West}); err != nil {
		t.Fatalf("SendJoy failed: %v", err)
	}
	if raw["id"] != float64(2) || raw["dir"] != "W" || raw["x"] != float64(-40) {
		t.Errorf("payload = %v, want {id:2, x:-40, y:0, dir:W}", raw)
	}
}

func TestMove(t *testing.T) {
	var path string
	var bodyLen int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		bodyLen = len(b)
	}))
	defer server.Close()

	ctrl := NewHTTPController(server.URL + "/")
	if err := ctrl.Move(context.Background(), control.ForwardRight); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if path != "/api/move/FORWARD_RT" {
		t.Errorf("path = %s, want /api/move/FORWARD_RT", path)
	}
	if bodyLen != 0 {
		t.Errorf("Move should send no body, got %d bytes", bodyLen)
	}

	if err := ctrl.Move(context.Background(), "SPIN"); !errors.Is(err, control.ErrUnknownCommand) {
		t.Errorf("Move(SPIN) error = %v, want ErrUnknownCommand", err)
	}
}

func TestStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"heading":90,"pitch":1,"yaw":2,"voltage":12.1,
			"positions":[[1,2,3],[1,2,3],[1,2,3],[1,2,3]],
			"angles":[[0,90,30],[0,90,30],[0,90,30],[0,90,30]],
			"offsets":[[0,0,0],[0,0,0],[0,0,0],[0,0,0]],
			"tilt":{"pitch":5,"yaw":0},"height_pct":65}`))
	}))
	defer server.Close()

	stats, err := NewHTTPController(server.URL).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Heading != 90 || stats.Voltage != 12.1 || stats.Tilt.Pitch != 5 || stats.HeightPct != 65 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestStats_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>oops</html>`},
		{"bad table", `{"positions":[[1,2,3]]}`},
		{"wrong type", `{"heading":"north"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewHTTPController(server.URL).Stats(context.Background())
			if !errors.Is(err, ErrMalformedResponse) {
				t.Fatalf("error = %v, want ErrMalformedResponse", err)
			}
			var me *MalformedResponseError
			if !errors.As(err, &me) || me.Endpoint != "/api/stats" {
				t.Errorf("expected MalformedResponseError for /api/stats, got %v", err)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown pose", http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewHTTPController(server.URL).SetPose(context.Background(), control.PoseSit)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want APIError", err)
	}
	if apiErr.StatusCode != 400 || apiErr.Message != "unknown pose" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if apiErr.IsServerError() {
		t.Error("400 is not a server error")
	}
}

func TestNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewHTTPController(url).Level(context.Background())
	if !IsNetworkError(err) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
}

func TestNetworkError_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctrl := NewHTTPController(server.URL, WithTimeout(50*time.Millisecond))
	err := ctrl.Demo(context.Background())

	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("error = %v, want NetworkError", err)
	}
	if !ne.Timeout() {
		t.Errorf("Timeout() = false for %v", ne.Err)
	}
}

func TestTargetsPathAndReset(t *testing.T) {
	type call struct {
		method, path string
		body         int
	}
	var calls []call
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		calls = append(calls, call{r.Method, r.URL.Path, len(b)})
		if r.Method == "GET" {
			w.Write([]byte(`[[0,0,140],[0,0,140],[0,0,140],[0,0,140]]`))
		}
	}))
	defer server.Close()

	ctrl := NewHTTPController(server.URL, WithTargetsPath("/api/pose"))
	ctx := context.Background()

	if err := ctrl.SetTargets(ctx, nil); err != nil {
		t.Fatalf("SetTargets(nil) failed: %v", err)
	}
	table := control.LegTable{{1, 2, 3}}
	if err := ctrl.SetTargets(ctx, &table); err != nil {
		t.Fatalf("SetTargets failed: %v", err)
	}
	got, err := ctrl.Targets(ctx)
	if err != nil {
		t.Fatalf("Targets failed: %v", err)
	}
	if got[2][2] != 140 {
		t.Errorf("Targets = %v", got)
	}

	if len(calls) != 3 {
		t.Fatalf("calls = %v", calls)
	}
	if calls[0].path != "/api/pose" || calls[0].body != 0 {
		t.Errorf("reset call = %+v, want empty POST to /api/pose", calls[0])
	}
	if calls[1].body == 0 {
		t.Error("SetTargets with a table should send a body")
	}
}

func TestAdjustTilt_Path(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	}))
	defer server.Close()

	ctrl := NewHTTPController(server.URL)
	if err := ctrl.AdjustTilt(context.Background(), control.AxisPitch, -15); err != nil {
		t.Fatalf("AdjustTilt failed: %v", err)
	}
	if path != "/api/tilt/pitch/-15" {
		t.Errorf("path = %s, want /api/tilt/pitch/-15", path)
	}
}
