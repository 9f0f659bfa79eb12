package robot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/teslashibe/go-vega/internal/httpc"
	"github.com/teslashibe/go-vega/pkg/control"
)

// DefaultTargetsPath is where pose targets live on current firmware.
// Older firmware serves them at /api/pose.
const DefaultTargetsPath = "/api/targets"

// maxErrorBody caps how much of an error reply is kept in APIError.
const maxErrorBody = 512

// HTTPController implements Controller using the robot's HTTP API.
type HTTPController struct {
	BaseURL     string
	TargetsPath string

	client *http.Client
}

// Option is a functional option for configuring an HTTPController.
type Option func(*HTTPController)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(r *HTTPController) {
		r.client = c
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(r *HTTPController) {
		r.client = httpc.NewClient(timeout)
	}
}

// WithTargetsPath sets the pose-target endpoint ("/api/pose" or "/api/targets").
func WithTargetsPath(path string) Option {
	return func(r *HTTPController) {
		if path != "" {
			r.TargetsPath = path
		}
	}
}

// NewHTTPController creates a new HTTP-based robot controller.
// baseURL is the robot's origin, e.g. "http://192.168.1.50:5000".
func NewHTTPController(baseURL string, opts ...Option) *HTTPController {
	r := &HTTPController{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		TargetsPath: DefaultTargetsPath,
		client:      httpc.NewClient(httpc.DefaultTimeout),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SendJoy posts a joystick sample as {id, x, y, dir}.
func (r *HTTPController) SendJoy(ctx context.Context, s control.Sample) error {
	return r.do(ctx, http.MethodPost, "/api/joy", s, nil)
}

// Move posts a discrete motion command.
func (r *HTTPController) Move(ctx context.Context, cmd control.Command) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %q", control.ErrUnknownCommand, string(cmd))
	}
	return r.do(ctx, http.MethodPost, "/api/move/"+string(cmd), nil, nil)
}

// Stats fetches the telemetry snapshot.
func (r *HTTPController) Stats(ctx context.Context) (control.Telemetry, error) {
	var t control.Telemetry
	err := r.do(ctx, http.MethodGet, "/api/stats", nil, &t)
	return t, err
}

// Offsets fetches the per-leg offsets.
func (r *HTTPController) Offsets(ctx context.Context) (control.LegTable, error) {
	var t control.LegTable
	err := r.do(ctx, http.MethodGet, "/api/offsets", nil, &t)
	return t, err
}

// SetOffsets writes the per-leg offsets. nil resets them.
func (r *HTTPController) SetOffsets(ctx context.Context, t *control.LegTable) error {
	return r.do(ctx, http.MethodPost, "/api/offsets", tableBody(t), nil)
}

// Targets fetches the per-leg pose targets.
func (r *HTTPController) Targets(ctx context.Context) (control.LegTable, error) {
	var t control.LegTable
	err := r.do(ctx, http.MethodGet, r.TargetsPath, nil, &t)
	return t, err
}

// SetTargets writes the per-leg pose targets. nil resets them.
func (r *HTTPController) SetTargets(ctx context.Context, t *control.LegTable) error {
	return r.do(ctx, http.MethodPost, r.TargetsPath, tableBody(t), nil)
}

// AdjustTilt sets one tilt axis.
func (r *HTTPController) AdjustTilt(ctx context.Context, axis control.Axis, value float64) error {
	path := fmt.Sprintf("/api/tilt/%s/%s", url.PathEscape(string(axis)), strconv.FormatFloat(value, 'f', -1, 64))
	return r.do(ctx, http.MethodPost, path, nil, nil)
}

// Tilt fetches the current tilt.
func (r *HTTPController) Tilt(ctx context.Context) (control.Tilt, error) {
	var t control.Tilt
	err := r.do(ctx, http.MethodGet, "/api/tilt", nil, &t)
	return t, err
}

// SetPose moves the robot into a canned pose.
func (r *HTTPController) SetPose(ctx context.Context, p control.Pose) error {
	return r.do(ctx, http.MethodPost, "/api/pose/"+string(p), nil, nil)
}

// Level asks the robot to level itself.
func (r *HTTPController) Level(ctx context.Context) error {
	return r.do(ctx, http.MethodPost, "/api/level", nil, nil)
}

// Demo triggers the demo sequence.
func (r *HTTPController) Demo(ctx context.Context) error {
	return r.do(ctx, http.MethodGet, "/api/demo", nil, nil)
}

// tableBody avoids the typed-nil trap: a nil table means "no body".
func tableBody(t *control.LegTable) any {
	if t == nil {
		return nil
	}
	return t
}

// do performs one request. in is JSON-encoded when non-nil; out is decoded
// from the reply when non-nil.
func (r *HTTPController) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("robot: failed to marshal %s payload: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	fullURL := r.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return fmt.Errorf("robot: failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return &NetworkError{Op: method, URL: fullURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Endpoint:   path,
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if ctx.Err() != nil {
			return &NetworkError{Op: method, URL: fullURL, Err: err}
		}
		return &MalformedResponseError{Endpoint: path, Err: err}
	}
	return nil
}
