// Package dispatch turns raw joystick samples into deduplicated robot
// commands.
//
// The decision is value based: a sample is sent only when its source or
// direction differs from the last sample that was sent. There is no time
// debounce, so a stick held in one direction produces exactly one command
// no matter how long it is held.
package dispatch

import (
	"github.com/teslashibe/go-vega/pkg/control"
)

// State is the most recently sent joystick command. The zero value means
// nothing has been sent yet.
type State struct {
	Source control.SourceID
	Dir    control.Direction
	Sent   bool
}

// SourceRule configures filtering for one joystick.
type SourceRule struct {
	// Excluded directions are never dispatched from this source.
	Excluded []control.Direction `yaml:"excluded" json:"excluded"`
}

func (r SourceRule) excludes(d control.Direction) bool {
	for _, x := range r.Excluded {
		if x == d {
			return true
		}
	}
	return false
}

// SourceConfig maps sources to their rules. Sources without an entry have
// no exclusions.
type SourceConfig map[control.SourceID]SourceRule

// DefaultSourceConfig keeps the right stick from driving forward or back:
// it only turns and strafes.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		control.Joy2: {Excluded: []control.Direction{control.North, control.South}},
	}
}

// Filter decides whether a sample is worth sending.
type Filter struct {
	Sources SourceConfig
}

// NewFilter creates a filter with the given per-source rules.
func NewFilter(sources SourceConfig) Filter {
	return Filter{Sources: sources}
}

// Excluded reports whether s is suppressed by its source's rule.
func (f Filter) Excluded(s control.Sample) bool {
	rule, ok := f.Sources[s.Source]
	return ok && rule.excludes(s.Dir)
}

// Decide returns the next state and whether s should be sent.
// Exclusions are checked before change detection and never touch state.
func (f Filter) Decide(state State, s control.Sample) (State, bool) {
	if f.Excluded(s) {
		return state, false
	}
	if state.Sent && state.Source == s.Source && state.Dir == s.Dir {
		return state, false
	}
	return State{Source: s.Source, Dir: s.Dir, Sent: true}, true
}
