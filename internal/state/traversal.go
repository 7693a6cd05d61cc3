package state

import (
	"context"
	"sync"
)

// Traversal simulates a walk along the installation: both distances start
// at Start and shrink by Step every fetch until they pass Stop.
type Traversal struct {
	Start, Stop, Step    float64
	NextColor, PrevColor string

	mu      sync.Mutex
	d       float64
	started bool
}

// DefaultTraversal walks from 3m to -0.5m in 10cm steps, next in red and
// previous in green.
func DefaultTraversal() *Traversal {
	return &Traversal{
		Start:     3,
		Stop:      -0.5,
		Step:      0.1,
		NextColor: "#ff0000",
		PrevColor: "#00ff00",
	}
}

func (t *Traversal) Fetch(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.started {
		t.d = t.Start
		t.started = true
	}
	if t.d <= t.Stop || t.Step <= 0 {
		return State{}, ErrDone
	}

	s := State{
		DistanceToNext:   Float(t.d),
		DistanceFromPrev: Float(t.d),
		NextColor:        t.NextColor,
		PrevColor:        t.PrevColor,
	}
	t.d -= t.Step
	return s, nil
}
