// Package widget holds the pure logic of the console's input widgets: the
// 9-button motion panel, vertical sliders and joystick direction
// classification. Rendering is left to whatever implements Renderer.
package widget

import (
	"sync"

	"github.com/teslashibe/go-vega/pkg/control"
)

// Renderer draws a widget's current visual state. Implementations live
// outside this package (websocket pushes, terminal output, tests).
type Renderer interface {
	Render(v any)
}

// Button is the visual state of one panel button.
type Button struct {
	Command control.Command `json:"value"`
	Label   string          `json:"label"`
	Pressed bool            `json:"pressed"`
}

// Panel is the 9-button motion panel.
//
// Clicking the active button emits STOP and releases it. Clicking any other
// button emits that command directly, with no STOP in between. STOP is
// momentary and never shows as pressed. Each click emits exactly one command.
type Panel struct {
	mu       sync.Mutex
	current  control.Command // "" when nothing is pressed
	onChange func(control.Command)
	renderer Renderer
}

// NewPanel creates a panel with nothing pressed. onChange receives every
// emitted command and may be nil. onChange and the renderer are called with
// the panel locked and must not call back into it.
func NewPanel(onChange func(control.Command)) *Panel {
	return &Panel{onChange: onChange}
}

// SetRenderer attaches a renderer that is redrawn after every click.
func (p *Panel) SetRenderer(r Renderer) {
	p.mu.Lock()
	p.renderer = r
	p.mu.Unlock()
}

// Click handles a button press and returns the command emitted.
func (p *Panel) Click(b control.Command) (control.Command, error) {
	if !b.Valid() {
		return "", control.ErrUnknownCommand
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	var emit control.Command
	switch {
	case p.current != "" && b == p.current:
		emit = control.Stop
		p.current = ""
	case b == control.Stop:
		emit = control.Stop
		p.current = ""
	default:
		emit = b
		p.current = b
	}

	// Callbacks run under the lock so concurrent clicks are emitted and
	// drawn in the order their state changes were made.
	if p.onChange != nil {
		p.onChange(emit)
	}
	if p.renderer != nil {
		p.renderer.Render(p.buttonsLocked())
	}
	return emit, nil
}

// Current returns the pressed command, if any.
func (p *Panel) Current() (control.Command, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.current != ""
}

// Buttons returns the nine buttons in grid order.
func (p *Panel) Buttons() []Button {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buttonsLocked()
}

func (p *Panel) buttonsLocked() []Button {
	out := make([]Button, 0, len(control.Commands))
	for _, c := range control.Commands {
		out = append(out, Button{
			Command: c,
			Label:   c.Label(),
			Pressed: c == p.current,
		})
	}
	return out
}
