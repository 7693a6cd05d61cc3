// Package state models the external state driving the display and the
// sources it can be read from.
package state

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrDone is returned by a Source that has no further states, ending the
// control loop.
var ErrDone = errors.New("state source exhausted")

// State is one snapshot of the walker's position between two landmarks.
type State struct {
	// DistanceToNext is the distance ahead to the next landmark.
	DistanceToNext *float64
	// DistanceFromPrev is the distance back to the previous landmark.
	DistanceFromPrev *float64
	// NextColor and PrevColor are hex colors for the two markers.
	NextColor string
	PrevColor string
	// Diagnostics bypasses normal rendering in favor of a test pattern.
	Diagnostics bool
}

// Source supplies the state for each control cycle.
type Source interface {
	Fetch(ctx context.Context) (State, error)
}

// Target is one point to mark on the walkway.
type Target struct {
	Name     string
	Distance float64
	Color    string
}

// Targets returns the points to mark. The next landmark lies ahead at
// +DistanceToNext; the previous one lies behind, at -DistanceFromPrev.
// A point without a distance or color is left out.
func (s State) Targets() []Target {
	var out []Target
	if s.DistanceToNext != nil && s.NextColor != "" {
		out = append(out, Target{"next", *s.DistanceToNext, s.NextColor})
	}
	if s.DistanceFromPrev != nil && s.PrevColor != "" {
		out = append(out, Target{"prev", -*s.DistanceFromPrev, s.PrevColor})
	}
	return out
}

// wire is the document layout published by the tracking backend.
type wire struct {
	DistanceToNext   *float64 `json:"distanceToNextTree" yaml:"distanceToNextTree"`
	DistanceFromPrev *float64 `json:"distanceFromPrevTree" yaml:"distanceFromPrevTree"`
	NextSpecies      *species `json:"nextSpecies" yaml:"nextSpecies"`
	PrevSpecies      *species `json:"prevSpecies" yaml:"prevSpecies"`
	Diagnostics      bool     `json:"ledDiagnosticsMode" yaml:"ledDiagnosticsMode"`
}

type species struct {
	Color string `json:"color" yaml:"color"`
}

func (w wire) state() State {
	s := State{
		DistanceToNext:   w.DistanceToNext,
		DistanceFromPrev: w.DistanceFromPrev,
		Diagnostics:      w.Diagnostics,
	}
	if w.NextSpecies != nil {
		s.NextColor = w.NextSpecies.Color
	}
	if w.PrevSpecies != nil {
		s.PrevColor = w.PrevSpecies.Color
	}
	return s
}

// Decode parses a JSON state document.
func Decode(b []byte) (State, error) {
	var w wire
	if err := json.Unmarshal(b, &w); err != nil {
		return State{}, errors.Wrap(err, "decode state")
	}
	return w.state(), nil
}

// Float returns a pointer to f.
func Float(f float64) *float64 { return &f }
