package state

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Keyframe is a distance V reached T seconds into a script. Ease shapes the
// segment starting at this keyframe.
type Keyframe struct {
	T    float64 `json:"t" yaml:"t" toml:"t"`
	V    float64 `json:"v" yaml:"v" toml:"v"`
	Ease string  `json:"ease,omitempty" yaml:"ease,omitempty" toml:"ease"` // "linear","smooth","cubic"
}

// Envelope interpolates between keyframes sorted by T.
type Envelope []Keyframe

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// smootherstep: 6x^5 - 15x^4 + 10x^3
func smootherstep(x float64) float64 {
	return x * x * x * (x*(x*6-15) + 10)
}

func easeApply(kind string, x float64) float64 {
	switch kind {
	case "smooth":
		return x * x * (3 - 2*x)
	case "cubic":
		return smootherstep(x)
	default:
		return x
	}
}

// Eval returns the value at t seconds, holding the first and last values
// outside the keyed range. An empty envelope is 0.
func (e Envelope) Eval(t float64) float64 {
	n := len(e)
	if n == 0 {
		return 0
	}
	if t <= e[0].T {
		return e[0].V
	}
	if t >= e[n-1].T {
		return e[n-1].V
	}
	for i := 0; i < n-1; i++ {
		a, b := e[i], e[i+1]
		if t >= a.T && t <= b.T {
			den := b.T - a.T
			if den <= 0 {
				return b.V
			}
			u := easeApply(a.Ease, clamp01((t-a.T)/den))
			return a.V + (b.V-a.V)*u
		}
	}
	return e[n-1].V
}

// End is the time of the last keyframe.
func (e Envelope) End() float64 {
	if len(e) == 0 {
		return 0
	}
	return e[len(e)-1].T
}

// Script replays a recorded walk: each distance follows its own envelope
// over wall-clock time from the first fetch. An empty envelope leaves that
// marker dark.
type Script struct {
	Next, Prev           Envelope
	NextColor, PrevColor string
	// Loop restarts the script at its end instead of exhausting it.
	Loop bool

	mu    sync.Mutex
	start time.Time
	now   func() time.Time
}

// NewScript validates and sorts the envelopes.
func NewScript(next, prev Envelope, nextColor, prevColor string, loop bool) (*Script, error) {
	if len(next) == 0 && len(prev) == 0 {
		return nil, errors.New("script has no keyframes")
	}
	for _, e := range []Envelope{next, prev} {
		sort.SliceStable(e, func(i, j int) bool { return e[i].T < e[j].T })
		for _, k := range e {
			if k.T < 0 {
				return nil, errors.Errorf("keyframe at negative time %g", k.T)
			}
		}
	}
	return &Script{
		Next:      next,
		Prev:      prev,
		NextColor: nextColor,
		PrevColor: prevColor,
		Loop:      loop,
		now:       time.Now,
	}, nil
}

func (s *Script) Fetch(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.start.IsZero() {
		s.start = now
	}
	t := now.Sub(s.start).Seconds()

	end := s.Next.End()
	if e := s.Prev.End(); e > end {
		end = e
	}
	if t > end {
		if !s.Loop {
			return State{}, ErrDone
		}
		if end > 0 {
			t = math.Mod(t, end)
		}
	}

	st := State{NextColor: s.NextColor, PrevColor: s.PrevColor}
	if len(s.Next) > 0 {
		st.DistanceToNext = Float(s.Next.Eval(t))
	}
	if len(s.Prev) > 0 {
		st.DistanceFromPrev = Float(s.Prev.Eval(t))
	}
	return st, nil
}
