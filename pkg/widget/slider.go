package widget

import (
	"fmt"
	"math"
	"sync"
)

// SliderParams configures a Slider. Zero fields take the defaults below.
type SliderParams struct {
	Name    string
	Title   string
	Min     float64
	Max     float64
	Step    float64
	Default float64

	// OnChange is called for operator changes only, never for SetValue.
	OnChange func(v float64)
}

// Slider is a bounded, stepped numeric input.
type Slider struct {
	params SliderParams

	mu    sync.RWMutex
	value float64
}

// NewSlider creates a slider positioned at its default value.
func NewSlider(p SliderParams) (*Slider, error) {
	if p.Max == 0 && p.Min == 0 {
		p.Max = 100
	}
	if p.Step <= 0 {
		p.Step = 1
	}
	if p.Title == "" {
		p.Title = p.Name
	}
	if p.Min >= p.Max {
		return nil, fmt.Errorf("widget: slider %q: min %v must be below max %v", p.Name, p.Min, p.Max)
	}
	if p.Default < p.Min || p.Default > p.Max {
		return nil, fmt.Errorf("widget: slider %q: default %v outside [%v, %v]", p.Name, p.Default, p.Min, p.Max)
	}
	return &Slider{params: p, value: p.Default}, nil
}

// Name returns the slider name.
func (s *Slider) Name() string { return s.params.Name }

// Params returns the slider configuration.
func (s *Slider) Params() SliderParams { return s.params }

// Value returns the current value.
func (s *Slider) Value() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Change applies an operator change: the value is clamped, snapped to the
// step grid and passed to OnChange. It returns the applied value.
func (s *Slider) Change(v float64) float64 {
	v = s.normalize(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = v
	// Called under the lock so the last change seen is the last value set.
	if s.params.OnChange != nil {
		s.params.OnChange(v)
	}
	return v
}

// Reset returns to the default value and notifies OnChange (double-click).
func (s *Slider) Reset() float64 {
	return s.Change(s.params.Default)
}

// SetValue moves the slider for display, e.g. from telemetry. OnChange is
// not called.
func (s *Slider) SetValue(v float64) {
	v = s.normalize(v)
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
}

func (s *Slider) normalize(v float64) float64 {
	p := s.params
	if math.IsNaN(v) {
		return p.Default
	}
	v = math.Max(p.Min, math.Min(p.Max, v))
	steps := math.Round((v - p.Min) / p.Step)
	v = p.Min + steps*p.Step
	if v > p.Max {
		v -= p.Step
	}
	return v
}
