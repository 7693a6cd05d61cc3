package diagnostics

import (
	"github.com/pkg/errors"

	"github.com/coreman2200/pathglow/internal/rgb"
)

type Kind string

const (
	// Rainbow cycles a color wheel across every pixel of every strip.
	Rainbow Kind = "rainbow"
	// IndexSweep walks a single white pixel from index 0 to the end.
	IndexSweep Kind = "index_sweep"
	// RGBTest shows full red, then green, then blue on all pixels.
	RGBTest Kind = "rgb_channels"
)

// ParseKind validates a pattern name. The empty string is Rainbow.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return Rainbow, nil
	case Rainbow, IndexSweep, RGBTest:
		return k, nil
	default:
		return "", errors.Errorf("unknown diagnostics pattern %q", s)
	}
}

type Plan struct {
	Kind Kind
	// Iterations repeats the pattern; zero means once.
	Iterations int
}

// Runner produces the frames of a Plan one step at a time.
type Runner struct {
	plan Plan
	step int
}

func NewRunner(plan Plan) *Runner {
	if plan.Iterations <= 0 {
		plan.Iterations = 1
	}
	return &Runner{plan: plan}
}

func (r *Runner) Kind() Kind { return r.plan.Kind }

// Steps returns the total number of frames for strips of the given
// pixel counts.
func (r *Runner) Steps(counts []int) int {
	var per int
	switch r.plan.Kind {
	case Rainbow:
		per = 256
	case IndexSweep:
		for _, n := range counts {
			if n > per {
				per = n
			}
		}
	case RGBTest:
		per = 3
	}
	return per * r.plan.Iterations
}

// Step returns the next frame for each strip of counts, in order, and
// false once the plan is complete.
func (r *Runner) Step(counts []int) ([][]rgb.Color, bool) {
	if r.step >= r.Steps(counts) {
		return nil, false
	}

	frames := make([][]rgb.Color, len(counts))
	for c, n := range counts {
		f := make([]rgb.Color, n)

		switch r.plan.Kind {
		case Rainbow:
			j := r.step % 256
			for i := range f {
				f[i] = rgb.Wheel(uint8((i + j) & 255))
			}
		case IndexSweep:
			per := r.Steps(counts) / r.plan.Iterations
			if idx := r.step % per; idx < n {
				f[idx] = rgb.Color{R: 255, G: 255, B: 255}
			}
		case RGBTest:
			var col rgb.Color
			switch r.step % 3 {
			case 0:
				col.R = 255
			case 1:
				col.G = 255
			case 2:
				col.B = 255
			}
			for i := range f {
				f[i] = col
			}
		}

		frames[c] = f
	}

	r.step++
	return frames, true
}
